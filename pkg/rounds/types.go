// Package rounds implements the multi-stage mint controller: stage
// configuration, supply accounting, and the end-to-end mint flow.
package rounds

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MintType selects the address-level eligibility check for a stage.
type MintType uint8

const (
	// MintTypePublic skips allowlist and signature checks entirely.
	MintTypePublic MintType = iota
	// MintTypeAllowlist requires a Merkle proof against the stage root,
	// unless the stage has signature gating enabled.
	MintTypeAllowlist
)

// StageMintInfo holds the configuration of a single mint stage.
type StageMintInfo struct {
	// EnableSig requires an authorizer signature instead of a Merkle proof.
	EnableSig bool `json:"enableSig"`

	// LimitationForAddress caps cumulative units per address in this stage.
	LimitationForAddress uint64 `json:"limitationForAddress"`

	// MaxSupplyForStage caps total units mintable in this stage.
	MaxSupplyForStage uint64 `json:"maxSupplyForStage"`

	// StartTime and EndTime bound the active window, inclusive, in unix seconds.
	StartTime uint64 `json:"startTime"`
	EndTime   uint64 `json:"endTime"`

	// Price is the per-unit price in the smallest currency unit.
	Price *big.Int `json:"price"`

	// PaymentToken is the ERC-20 used for payment; zero address means native.
	PaymentToken common.Address `json:"paymentToken"`

	// PayeeAddress receives collected payments.
	PayeeAddress common.Address `json:"payeeAddress"`

	// AllowlistMerkleRoot gates allowlist stages; zero means unrestricted.
	AllowlistMerkleRoot common.Hash `json:"allowListMerkleRoot"`

	// Stage is the unique stage name.
	Stage string `json:"stage"`

	MintType MintType `json:"mintType"`
}

// Copy returns a deep copy of the stage info.
func (s *StageMintInfo) Copy() StageMintInfo {
	copied := *s
	if s.Price != nil {
		copied.Price = new(big.Int).Set(s.Price)
	}
	return copied
}

// MintParams carries the per-request mint parameters.
type MintParams struct {
	// Amount of units to mint.
	Amount uint64 `json:"amount"`

	// TokenID is the caller-requested token ID. It is bound into signed
	// requests but never determines the assigned ID.
	TokenID uint64 `json:"tokenId"`

	// Nonce makes a signed request single-use.
	Nonce uint64 `json:"nonce"`

	// Expiry is the unix second after which a signed request is invalid.
	Expiry uint64 `json:"expiry"`

	// To receives the minted tokens.
	To common.Address `json:"to"`
}
