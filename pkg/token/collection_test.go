package token

import (
	"math"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	collectionAddr = common.HexToAddress("0x0000000000000000000000000000000000000004")
	holder         = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	treasury       = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
)

func newTestCollection() *Collection {
	return NewCollection(collectionAddr, "Just for test", "JFT", "ipfs://tokenURI.com")
}

func TestNewCollection(t *testing.T) {
	c := newTestCollection()

	assert.Equal(t, collectionAddr, c.Address())
	assert.Equal(t, "Just for test", c.Name())
	assert.Equal(t, "JFT", c.Symbol())
	assert.Equal(t, "ipfs://tokenURI.com", c.TokenURI())
	assert.Equal(t, uint64(0), c.Minted())
}

func TestCollection_Mint(t *testing.T) {
	c := newTestCollection()

	last, ipID, err := c.Mint(holder, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), last)
	assert.NotEqual(t, common.Address{}, ipID)

	owner, err := c.OwnerOf(1)
	require.NoError(t, err)
	assert.Equal(t, holder, owner)
	assert.Equal(t, uint64(1), c.BalanceOf(holder))
	assert.Equal(t, uint64(1), c.Minted())
}

func TestCollection_Mint_Sequential(t *testing.T) {
	c := newTestCollection()

	for want := uint64(1); want <= 5; want++ {
		last, _, err := c.Mint(holder, 1)
		require.NoError(t, err)
		assert.Equal(t, want, last)
	}
}

func TestCollection_Mint_Batch(t *testing.T) {
	c := newTestCollection()

	last, _, err := c.Mint(holder, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last)
	assert.Equal(t, uint64(3), c.BalanceOf(holder))

	for id := uint64(1); id <= 3; id++ {
		owner, err := c.OwnerOf(id)
		require.NoError(t, err)
		assert.Equal(t, holder, owner)
	}
}

func TestCollection_Mint_ZeroRecipient(t *testing.T) {
	c := newTestCollection()

	_, _, err := c.Mint(common.Address{}, 1)
	assert.ErrorIs(t, err, ErrZeroRecipient)
}

func TestCollection_Mint_ZeroAmount(t *testing.T) {
	c := newTestCollection()

	_, _, err := c.Mint(holder, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, uint64(0), c.Minted())
}

func TestCollection_Mint_AmountOverflow(t *testing.T) {
	c := newTestCollection()

	_, _, err := c.Mint(holder, 1)
	require.NoError(t, err)

	// A batch whose ID range would wrap uint64 is rejected whole.
	_, _, err = c.Mint(holder, math.MaxUint64)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, uint64(1), c.Minted())
	assert.Equal(t, uint64(1), c.BalanceOf(holder))

	// The cursor is untouched.
	last, _, err := c.Mint(holder, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), last)
}

func TestCollection_PreMintTo(t *testing.T) {
	c := newTestCollection()

	require.NoError(t, c.PreMintTo(treasury, 20))
	assert.Equal(t, uint64(20), c.BalanceOf(treasury))
	assert.Equal(t, uint64(20), c.Minted())

	owner, err := c.OwnerOf(20)
	require.NoError(t, err)
	assert.Equal(t, treasury, owner)

	// Sequential assignment continues above the reserved block.
	last, _, err := c.Mint(holder, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(21), last)
}

func TestCollection_PreMintTo_Collision(t *testing.T) {
	c := newTestCollection()

	_, _, err := c.Mint(holder, 3)
	require.NoError(t, err)

	assert.ErrorIs(t, c.PreMintTo(treasury, 5), ErrTokenExists)
	assert.Equal(t, uint64(0), c.BalanceOf(treasury))
}

func TestCollection_PreMintTo_ZeroRecipient(t *testing.T) {
	c := newTestCollection()

	assert.ErrorIs(t, c.PreMintTo(common.Address{}, 5), ErrZeroRecipient)
}

func TestCollection_ReserveThrough(t *testing.T) {
	c := newTestCollection()

	c.ReserveThrough(100)
	last, _, err := c.Mint(holder, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(101), last)

	// Reserving below the cursor is a no-op.
	c.ReserveThrough(50)
	last, _, err = c.Mint(holder, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(102), last)
}

func TestCollection_OwnerOf_NotFound(t *testing.T) {
	c := newTestCollection()

	_, err := c.OwnerOf(1)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestCollection_IPAssetID(t *testing.T) {
	c := newTestCollection()

	_, mintIPID, err := c.Mint(holder, 1)
	require.NoError(t, err)

	ipID, err := c.IPAssetID(1)
	require.NoError(t, err)
	assert.Equal(t, mintIPID, ipID)

	_, err = c.IPAssetID(2)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	// The derivation binds both the collection address and the token ID.
	other := NewCollection(common.HexToAddress("0x05"), "Other", "OTH", "ipfs://other")
	_, otherIPID, err := other.Mint(holder, 1)
	require.NoError(t, err)
	assert.NotEqual(t, ipID, otherIPID)
}

func TestCollection_Mint_Concurrent(t *testing.T) {
	c := newTestCollection()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.Mint(holder, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(100), c.Minted())
	assert.Equal(t, uint64(100), c.BalanceOf(holder))
}
