// Package compat checks parity with the reference contract deployment:
// Merkle roots produced by merkletreejs, signed mint digests, and the
// supply arithmetic observed on chain.
package compat

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tentou-tech/mimboku-mint-go/pkg/allowlist"
	"github.com/tentou-tech/mimboku-mint-go/pkg/ledger"
	"github.com/tentou-tech/mimboku-mint-go/pkg/mintsig"
	"github.com/tentou-tech/mimboku-mint-go/pkg/rounds"
	"github.com/tentou-tech/mimboku-mint-go/pkg/token"
)

var (
	admin    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	operator = common.HexToAddress("0x2222222222222222222222222222222222222222")
	user1    = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	user2    = common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
	user3    = common.HexToAddress("0x15d34AAf54267DB7D7c367839AAf71A00a2C6A65")
	payee    = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
)

// TestMerkleRootCompat pins the root merkletreejs produces for the reference
// allowlist (keccak leaves, sorted pairs).
func TestMerkleRootCompat(t *testing.T) {
	tree, err := allowlist.NewTree([]common.Address{user1, user2, user3})
	require.NoError(t, err)

	assert.Equal(t,
		common.HexToHash("0x1d2c6d0de38c77d2a15f6d241121ec032404625e87566d8a742d3dc2f924263d"),
		tree.Root())
}

// TestSupplyArithmeticCompat walks the reference deployment sequence and
// checks every supply figure observed on chain.
func TestSupplyArithmeticCompat(t *testing.T) {
	bank := ledger.New()
	for _, addr := range []common.Address{user1, user2, user3} {
		require.NoError(t, bank.Credit(addr, big.NewInt(10_000_000)))
	}

	collection := token.NewCollection(common.HexToAddress("0x04"), "Just for test", "JFT", "ipfs://tokenURI.com")
	registry := rounds.NewStageRegistry()
	auth := mintsig.NewAuthorizer(big.NewInt(1315), common.HexToAddress("0x0c01"))

	tree, err := allowlist.NewTree([]common.Address{user1, user2, user3})
	require.NoError(t, err)

	c := rounds.NewController(rounds.NewAccessControl(admin, operator), registry, allowlist.AddressVerifier{}, auth, bank)
	require.NoError(t, c.SetContracts(admin, collection, common.Address{}))
	c.SetClock(func() uint64 { return 1500 })

	// Stage registration: whitelist cap 100, public cap 200.
	require.NoError(t, c.SetStageMintInfo(operator, rounds.StageMintInfo{
		LimitationForAddress: 50,
		MaxSupplyForStage:    100,
		StartTime:            1000,
		EndTime:              2000,
		Price:                big.NewInt(9999),
		PayeeAddress:         payee,
		AllowlistMerkleRoot:  tree.Root(),
		Stage:                "Whitelist",
		MintType:             rounds.MintTypeAllowlist,
	}))
	assert.Equal(t, uint64(100), c.MaxSupply())

	require.NoError(t, c.SetStageMintInfo(operator, rounds.StageMintInfo{
		LimitationForAddress: 200,
		MaxSupplyForStage:    200,
		StartTime:            2001,
		EndTime:              4000,
		Price:                big.NewInt(100),
		PayeeAddress:         payee,
		Stage:                "Public",
		MintType:             rounds.MintTypePublic,
	}))
	assert.Equal(t, uint64(300), c.MaxSupply())

	// Pre-minted block of 11, then raised to 20: max supply follows exactly.
	require.NoError(t, c.SetPreMintedCount(operator, 11))
	assert.Equal(t, uint64(311), c.MaxSupply())
	require.NoError(t, c.SetPreMintedCount(operator, 20))
	assert.Equal(t, uint64(320), c.MaxSupply())

	// First mint: total supply counts round-minted units only, and the token
	// ID lands above the reserved block.
	proof, err := tree.Proof(user1)
	require.NoError(t, err)

	tokenID, _, err := c.Mint(user1, "Whitelist", nil, proof, rounds.MintParams{Amount: 1, To: user1}, big.NewInt(9999))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.TotalSupply())
	assert.Greater(t, tokenID, uint64(20))
	assert.Equal(t, uint64(20), c.PreMintedCount())
	assert.Equal(t, uint64(320), c.MaxSupply())
}

// TestCapUpdateCompat mirrors the on-chain rule that a stage cap can move
// but never below what the stage already sold.
func TestCapUpdateCompat(t *testing.T) {
	registry := rounds.NewStageRegistry()
	require.NoError(t, registry.SetStageMintInfo(rounds.StageMintInfo{
		LimitationForAddress: 50,
		MaxSupplyForStage:    100,
		StartTime:            1000,
		EndTime:              2000,
		Price:                big.NewInt(9999),
		Stage:                "Whitelist",
		MintType:             rounds.MintTypeAllowlist,
	}))

	for i := 0; i < 30; i++ {
		require.NoError(t, registry.Reserve("Whitelist", common.BytesToAddress([]byte{byte(i + 1)}), 1))
	}

	shrunk := rounds.StageMintInfo{
		LimitationForAddress: 50,
		MaxSupplyForStage:    29,
		StartTime:            1000,
		EndTime:              2000,
		Price:                big.NewInt(9999),
		Stage:                "Whitelist",
		MintType:             rounds.MintTypeAllowlist,
	}
	assert.ErrorIs(t, registry.SetStageMintInfo(shrunk), rounds.ErrInvalidCap)

	shrunk.MaxSupplyForStage = 30
	require.NoError(t, registry.SetStageMintInfo(shrunk))

	// The update kept the sold counter.
	minted, err := registry.MintedInStage("Whitelist")
	require.NoError(t, err)
	assert.Equal(t, uint64(30), minted)
}
