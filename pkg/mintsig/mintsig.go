// Package mintsig implements off-chain authorization of mint requests: a
// designated signer produces a signature over the request, and the
// authorizer verifies it and prevents replay through a consumed-nonce set.
package mintsig

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tentou-tech/mimboku-mint-go/pkg/rounds"
)

// Authorization errors.
var (
	ErrExpired      = errors.New("request expired")
	ErrReplayed     = errors.New("nonce already consumed")
	ErrBadSignature = errors.New("bad signature")
)

// signedMessagePrefix is the EIP-191 personal-message prefix for a 32-byte
// payload.
const signedMessagePrefix = "\x19Ethereum Signed Message:\n32"

// Digest computes the canonical digest of a mint request. The chain ID and
// controller address bind the signature to one deployment, so a request
// signed for one controller cannot be replayed against another.
func Digest(chainID *big.Int, controller common.Address, stage string, params rounds.MintParams) common.Hash {
	var (
		amount  common.Hash
		tokenID common.Hash
		nonce   common.Hash
		expiry  common.Hash
	)
	new(big.Int).SetUint64(params.Amount).FillBytes(amount[:])
	new(big.Int).SetUint64(params.TokenID).FillBytes(tokenID[:])
	new(big.Int).SetUint64(params.Nonce).FillBytes(nonce[:])
	new(big.Int).SetUint64(params.Expiry).FillBytes(expiry[:])

	var chain common.Hash
	chainID.FillBytes(chain[:])

	inner := crypto.Keccak256Hash(
		chain[:],
		controller.Bytes(),
		crypto.Keccak256([]byte(stage)),
		amount[:],
		tokenID[:],
		nonce[:],
		expiry[:],
		params.To.Bytes(),
	)

	return crypto.Keccak256Hash([]byte(signedMessagePrefix), inner[:])
}

// Authorizer verifies signed mint requests for one controller deployment.
type Authorizer struct {
	chainID    *big.Int
	controller common.Address
	consumed   map[uint64]bool
	now        func() uint64

	mu sync.RWMutex
}

// NewAuthorizer creates an authorizer bound to a deployment identity.
func NewAuthorizer(chainID *big.Int, controller common.Address) *Authorizer {
	return &Authorizer{
		chainID:    new(big.Int).Set(chainID),
		controller: controller,
		consumed:   make(map[uint64]bool),
		now:        func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetClock overrides the authorizer's time source.
func (a *Authorizer) SetClock(now func() uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.now = now
}

// Verify checks that the signature over the request recovers to signer, that
// the request has not expired, and that its nonce is unspent. It has no side
// effects: the nonce stays unspent until Consume is called.
func (a *Authorizer) Verify(signer common.Address, stage string, params rounds.MintParams, sig []byte) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.now() > params.Expiry {
		return ErrExpired
	}
	if a.consumed[params.Nonce] {
		return ErrReplayed
	}

	if len(sig) != crypto.SignatureLength {
		return ErrBadSignature
	}

	// Normalize the recovery byte: wallets emit 27/28, crypto expects 0/1.
	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}

	digest := Digest(a.chainID, a.controller, stage, params)
	pub, err := crypto.SigToPub(digest[:], normalized)
	if err != nil {
		return ErrBadSignature
	}
	if crypto.PubkeyToAddress(*pub) != signer {
		return ErrBadSignature
	}

	return nil
}

// Consume marks a nonce spent. The consumed set persists for the lifetime of
// the authorizer.
func (a *Authorizer) Consume(nonce uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.consumed[nonce] = true
}

// Consumed reports whether a nonce has been spent.
func (a *Authorizer) Consumed(nonce uint64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.consumed[nonce]
}

// Signer produces signatures the Authorizer accepts.
type Signer struct {
	key *ecdsa.PrivateKey
}

// NewSigner wraps an ECDSA private key.
func NewSigner(key *ecdsa.PrivateKey) *Signer {
	return &Signer{key: key}
}

// Address returns the signer identity.
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// Sign signs a mint request for the given deployment.
func (s *Signer) Sign(chainID *big.Int, controller common.Address, stage string, params rounds.MintParams) ([]byte, error) {
	digest := Digest(chainID, controller, stage, params)
	return crypto.Sign(digest[:], s.key)
}
