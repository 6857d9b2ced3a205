// Package token provides the NFT collection the mint controller issues into.
package token

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Collection errors.
var (
	ErrTokenExists   = errors.New("token already minted")
	ErrTokenNotFound = errors.New("token not found")
	ErrZeroRecipient = errors.New("mint to zero address")
	ErrInvalidAmount = errors.New("invalid mint amount")
)

// Collection tracks token ownership and assigns token IDs. Sequential IDs
// start above the reserved pre-mint block.
type Collection struct {
	address  common.Address
	name     string
	symbol   string
	tokenURI string

	owners   map[uint64]common.Address
	balances map[common.Address]uint64
	nextID   uint64

	mu sync.RWMutex
}

// NewCollection creates a collection identified by its deployment address.
func NewCollection(address common.Address, name, symbol, tokenURI string) *Collection {
	return &Collection{
		address:  address,
		name:     name,
		symbol:   symbol,
		tokenURI: tokenURI,
		owners:   make(map[uint64]common.Address),
		balances: make(map[common.Address]uint64),
		nextID:   1,
	}
}

// Address returns the collection's deployment address.
func (c *Collection) Address() common.Address {
	return c.address
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Symbol returns the collection symbol.
func (c *Collection) Symbol() string {
	return c.symbol
}

// TokenURI returns the base token URI.
func (c *Collection) TokenURI() string {
	return c.tokenURI
}

// Mint issues amount tokens to the recipient and returns the last issued
// token ID and its IP asset ID. IDs are assigned sequentially above the
// reserved block; the batch is all-or-nothing.
func (c *Collection) Mint(to common.Address, amount uint64) (uint64, common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if to == (common.Address{}) {
		return 0, common.Address{}, ErrZeroRecipient
	}

	// Also rejects batches whose ID range would wrap uint64.
	last := c.nextID + amount - 1
	if amount == 0 || last < c.nextID {
		return 0, common.Address{}, ErrInvalidAmount
	}

	for id := c.nextID; id <= last; id++ {
		c.owners[id] = to
	}
	c.balances[to] += amount
	c.nextID = last + 1

	return last, c.ipID(last), nil
}

// PreMintTo issues the reserved block of n tokens with IDs 1..n to a
// treasury address and advances the sequential cursor past it.
func (c *Collection) PreMintTo(treasury common.Address, n uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if treasury == (common.Address{}) {
		return ErrZeroRecipient
	}

	for id := uint64(1); id <= n; id++ {
		if _, exists := c.owners[id]; exists {
			return ErrTokenExists
		}
	}

	for id := uint64(1); id <= n; id++ {
		c.owners[id] = treasury
	}
	c.balances[treasury] += n

	if c.nextID <= n {
		c.nextID = n + 1
	}
	return nil
}

// ReserveThrough guarantees sequential assignment starts above n.
func (c *Collection) ReserveThrough(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nextID <= n {
		c.nextID = n + 1
	}
}

// OwnerOf returns the owner of a token.
func (c *Collection) OwnerOf(tokenID uint64) (common.Address, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	owner, ok := c.owners[tokenID]
	if !ok {
		return common.Address{}, ErrTokenNotFound
	}
	return owner, nil
}

// BalanceOf returns the number of tokens an address owns.
func (c *Collection) BalanceOf(addr common.Address) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.balances[addr]
}

// Minted returns the total number of issued tokens.
func (c *Collection) Minted() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return uint64(len(c.owners))
}

// IPAssetID returns the IP asset ID of a minted token.
func (c *Collection) IPAssetID(tokenID uint64) (common.Address, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.owners[tokenID]; !ok {
		return common.Address{}, ErrTokenNotFound
	}
	return c.ipID(tokenID), nil
}

// ipID derives a deterministic IP asset ID from the collection address and
// the token ID.
func (c *Collection) ipID(tokenID uint64) common.Address {
	var id [8]byte
	for i := 0; i < 8; i++ {
		id[7-i] = byte(tokenID >> (8 * i))
	}
	hash := crypto.Keccak256(c.address.Bytes(), id[:])
	return common.BytesToAddress(hash[12:])
}
