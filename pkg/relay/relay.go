// Package relay implements the marketplace mint path. It shares the stage
// registry, ledger, and collection with the round controller, so both paths
// draw from the same supply counters and cannot double-spend them.
package relay

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tentou-tech/mimboku-mint-go/pkg/rounds"
)

// Controller is the relay-mint entry point. Every relay mint requires a
// signature from the relay signer, whatever the stage's own gating is.
type Controller struct {
	registry *rounds.StageRegistry
	auth     rounds.SigAuthorizer
	ledger   rounds.PaymentLedger
	nft      rounds.TokenMinter

	signer common.Address

	lastMintedTokenID uint64

	now func() uint64

	mu sync.Mutex
}

// New creates a relay controller around the shared collaborators.
func New(registry *rounds.StageRegistry, auth rounds.SigAuthorizer, ledger rounds.PaymentLedger, nft rounds.TokenMinter, signer common.Address) *Controller {
	return &Controller{
		registry: registry,
		auth:     auth,
		ledger:   ledger,
		nft:      nft,
		signer:   signer,
		now:      func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetClock overrides the controller's time source.
func (c *Controller) SetClock(now func() uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = now
}

// SetSigner updates the relay signer identity.
func (c *Controller) SetSigner(signer common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.signer = signer
}

// Signer returns the relay signer identity.
func (c *Controller) Signer() common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.signer
}

// LastMintedTokenID returns the token ID of the most recent relay mint.
func (c *Controller) LastMintedTokenID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastMintedTokenID
}

// Mint runs the relay mint flow. It reserves supply through the shared
// registry, so a relay mint and a round mint against the same stage observe
// one total order over the counters.
func (c *Controller) Mint(caller common.Address, stage string, signature []byte, params rounds.MintParams, value *big.Int) (uint64, common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := c.registry.StageToMint(stage)
	if err != nil {
		return 0, common.Address{}, err
	}

	if params.Amount == 0 {
		return 0, common.Address{}, rounds.ErrInvalidAmount
	}

	now := c.now()
	if now < info.StartTime || now > info.EndTime {
		return 0, common.Address{}, rounds.ErrNotActive
	}

	if err := c.auth.Verify(c.signer, stage, params, signature); err != nil {
		return 0, common.Address{}, fmt.Errorf("%w: %w", rounds.ErrNotEligible, err)
	}

	cost := new(big.Int)
	if info.Price != nil {
		cost.Mul(info.Price, new(big.Int).SetUint64(params.Amount))
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Cmp(cost) < 0 {
		return 0, common.Address{}, rounds.ErrInsufficientPayment
	}
	if value.Cmp(cost) > 0 {
		return 0, common.Address{}, rounds.ErrExcessPayment
	}

	if err := c.registry.Reserve(stage, caller, params.Amount); err != nil {
		return 0, common.Address{}, err
	}

	if err := c.ledger.Transfer(caller, info.PayeeAddress, cost); err != nil {
		c.registry.Release(stage, caller, params.Amount)
		return 0, common.Address{}, fmt.Errorf("%w: %w", rounds.ErrInsufficientPayment, err)
	}

	tokenID, ipID, err := c.nft.Mint(params.To, params.Amount)
	if err != nil {
		// The payee received cost in this call, so the refund cannot fail.
		c.ledger.Transfer(info.PayeeAddress, caller, cost)
		c.registry.Release(stage, caller, params.Amount)
		return 0, common.Address{}, err
	}

	c.auth.Consume(params.Nonce)

	c.lastMintedTokenID = tokenID
	return tokenID, ipID, nil
}
