package rounds

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TokenMinter issues tokens to recipients. Minting a batch is all-or-nothing.
type TokenMinter interface {
	// Mint issues amount tokens to the recipient and returns the last issued
	// token ID together with the derived IP asset ID.
	Mint(to common.Address, amount uint64) (uint64, common.Address, error)

	// ReserveThrough guarantees sequential assignment starts above n.
	ReserveThrough(n uint64)
}

// PaymentLedger moves native currency between accounts.
type PaymentLedger interface {
	Transfer(from, to common.Address, amount *big.Int) error
}

// ProofVerifier checks allowlist membership of an address against a root.
type ProofVerifier interface {
	Verify(root common.Hash, addr common.Address, proof []common.Hash) bool
}

// SigAuthorizer validates signed mint requests and tracks consumed nonces.
// Verify must not consume the nonce; Consume is called once the whole mint
// has succeeded, so a rejected mint never burns a nonce.
type SigAuthorizer interface {
	Verify(signer common.Address, stage string, params MintParams, sig []byte) error
	Consume(nonce uint64)
}

// Controller orchestrates the mint flow: stage resolution, time window,
// eligibility, supply reservation, payment, and token issuance. Mint calls
// are serialized; a failure at any step leaves every counter, balance, and
// nonce untouched.
type Controller struct {
	access   *AccessControl
	registry *StageRegistry
	proofs   ProofVerifier
	auth     SigAuthorizer
	ledger   PaymentLedger

	nft       TokenMinter
	relayAddr common.Address

	signer common.Address
	isTest bool

	lastMintedTokenID uint64

	now func() uint64

	mu sync.Mutex
}

// NewController creates a mint controller. The registry may be shared with
// other mint paths so they draw from the same supply counters.
func NewController(access *AccessControl, registry *StageRegistry, proofs ProofVerifier, auth SigAuthorizer, ledger PaymentLedger) *Controller {
	return &Controller{
		access:   access,
		registry: registry,
		proofs:   proofs,
		auth:     auth,
		ledger:   ledger,
		now:      func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetClock overrides the controller's time source.
func (c *Controller) SetClock(now func() uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = now
}

// Mint runs the full mint flow for the caller. value is the attached native
// payment; it must equal price*amount exactly. On success it returns the last
// issued token ID and the derived IP asset ID.
func (c *Controller) Mint(caller common.Address, stage string, signature []byte, proof []common.Hash, params MintParams, value *big.Int) (uint64, common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := c.registry.StageToMint(stage)
	if err != nil {
		return 0, common.Address{}, err
	}

	if params.Amount == 0 {
		return 0, common.Address{}, ErrInvalidAmount
	}
	if c.nft == nil {
		return 0, common.Address{}, ErrNoTokenContract
	}

	now := c.now()
	if now < info.StartTime || now > info.EndTime {
		return 0, common.Address{}, ErrNotActive
	}

	switch {
	case info.EnableSig:
		if err := c.auth.Verify(c.signer, stage, params, signature); err != nil {
			return 0, common.Address{}, fmt.Errorf("%w: %w", ErrNotEligible, err)
		}
	case info.MintType == MintTypeAllowlist && info.AllowlistMerkleRoot != (common.Hash{}):
		if !c.proofs.Verify(info.AllowlistMerkleRoot, caller, proof) {
			return 0, common.Address{}, ErrNotEligible
		}
	}

	cost := new(big.Int)
	if info.Price != nil {
		cost.Mul(info.Price, new(big.Int).SetUint64(params.Amount))
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Cmp(cost) < 0 {
		return 0, common.Address{}, ErrInsufficientPayment
	}
	if value.Cmp(cost) > 0 {
		return 0, common.Address{}, ErrExcessPayment
	}

	if err := c.registry.Reserve(stage, caller, params.Amount); err != nil {
		return 0, common.Address{}, err
	}

	if err := c.ledger.Transfer(caller, info.PayeeAddress, cost); err != nil {
		c.registry.Release(stage, caller, params.Amount)
		return 0, common.Address{}, fmt.Errorf("%w: %w", ErrInsufficientPayment, err)
	}

	tokenID, ipID, err := c.nft.Mint(params.To, params.Amount)
	if err != nil {
		// The payee received cost in this call, so the refund cannot fail.
		c.ledger.Transfer(info.PayeeAddress, caller, cost)
		c.registry.Release(stage, caller, params.Amount)
		return 0, common.Address{}, err
	}

	if info.EnableSig {
		c.auth.Consume(params.Nonce)
	}

	c.lastMintedTokenID = tokenID
	return tokenID, ipID, nil
}

// SetContracts wires the token collaborator and the relay address.
// Restricted to the default admin role.
func (c *Controller) SetContracts(caller common.Address, nft TokenMinter, relay common.Address) error {
	if err := c.access.Require(RoleDefaultAdmin, caller); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.nft = nft
	c.relayAddr = relay
	return nil
}

// EnableTestMode toggles test mode. Test mode marks the deployment as using
// the built-in IP asset derivation instead of an external registrar; token
// ID assignment is unaffected. Restricted to the default admin role.
func (c *Controller) EnableTestMode(caller common.Address, enabled bool) error {
	if err := c.access.Require(RoleDefaultAdmin, caller); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.isTest = enabled
	return nil
}

// SetSigner sets the identity that must have signed signature-gated
// requests. Restricted to the default admin role.
func (c *Controller) SetSigner(caller, signer common.Address) error {
	if err := c.access.Require(RoleDefaultAdmin, caller); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.signer = signer
	return nil
}

// SetStageMintInfo inserts or updates a stage. Restricted to the operator role.
func (c *Controller) SetStageMintInfo(caller common.Address, info StageMintInfo) error {
	if err := c.access.Require(RoleOperator, caller); err != nil {
		return err
	}

	return c.registry.SetStageMintInfo(info)
}

// SetPreMintedCount updates the pre-minted allowance and advances the token
// ID cursor past the reserved block. Restricted to the operator role.
func (c *Controller) SetPreMintedCount(caller common.Address, n uint64) error {
	if err := c.access.Require(RoleOperator, caller); err != nil {
		return err
	}

	if err := c.registry.SetPreMintedCount(n); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nft != nil {
		c.nft.ReserveThrough(n)
	}
	return nil
}

// SetMaxSupply raises the max supply override. Restricted to the operator role.
func (c *Controller) SetMaxSupply(caller common.Address, n uint64) error {
	if err := c.access.Require(RoleOperator, caller); err != nil {
		return err
	}

	return c.registry.SetMaxSupply(n)
}

// StageToMint returns a stage configuration.
func (c *Controller) StageToMint(stage string) (StageMintInfo, error) {
	return c.registry.StageToMint(stage)
}

// MaxSupply returns the effective max supply.
func (c *Controller) MaxSupply() uint64 {
	return c.registry.MaxSupply()
}

// TotalSupply returns the units minted through stages.
func (c *Controller) TotalSupply() uint64 {
	return c.registry.TotalSupply()
}

// PreMintedCount returns the pre-minted allowance.
func (c *Controller) PreMintedCount() uint64 {
	return c.registry.PreMintedCount()
}

// LastMintedTokenID returns the token ID of the most recent successful mint.
func (c *Controller) LastMintedTokenID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastMintedTokenID
}

// IsTest returns true when test mode is enabled.
func (c *Controller) IsTest() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.isTest
}

// Signer returns the configured request signer identity.
func (c *Controller) Signer() common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.signer
}

// RelayAddress returns the wired relay collaborator address.
func (c *Controller) RelayAddress() common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.relayAddr
}
