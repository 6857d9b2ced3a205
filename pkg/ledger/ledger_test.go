package ledger

import (
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	bob   = common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
)

func TestLedger_Credit(t *testing.T) {
	l := New()

	require.NoError(t, l.Credit(alice, big.NewInt(100)))
	assert.Equal(t, big.NewInt(100), l.BalanceOf(alice))

	require.NoError(t, l.Credit(alice, big.NewInt(50)))
	assert.Equal(t, big.NewInt(150), l.BalanceOf(alice))
}

func TestLedger_Credit_Negative(t *testing.T) {
	l := New()

	assert.ErrorIs(t, l.Credit(alice, big.NewInt(-1)), ErrNegativeAmount)
	assert.Equal(t, big.NewInt(0), l.BalanceOf(alice))
}

func TestLedger_Debit(t *testing.T) {
	l := New()
	require.NoError(t, l.Credit(alice, big.NewInt(100)))

	require.NoError(t, l.Debit(alice, big.NewInt(40)))
	assert.Equal(t, big.NewInt(60), l.BalanceOf(alice))
}

func TestLedger_Debit_Insufficient(t *testing.T) {
	l := New()
	require.NoError(t, l.Credit(alice, big.NewInt(10)))

	assert.ErrorIs(t, l.Debit(alice, big.NewInt(11)), ErrInsufficientFunds)
	assert.ErrorIs(t, l.Debit(bob, big.NewInt(1)), ErrInsufficientFunds)
	assert.Equal(t, big.NewInt(10), l.BalanceOf(alice))
}

func TestLedger_Debit_Negative(t *testing.T) {
	l := New()

	assert.ErrorIs(t, l.Debit(alice, big.NewInt(-1)), ErrNegativeAmount)
}

func TestLedger_Transfer(t *testing.T) {
	l := New()
	require.NoError(t, l.Credit(alice, big.NewInt(100)))

	require.NoError(t, l.Transfer(alice, bob, big.NewInt(30)))
	assert.Equal(t, big.NewInt(70), l.BalanceOf(alice))
	assert.Equal(t, big.NewInt(30), l.BalanceOf(bob))
}

func TestLedger_Transfer_Insufficient(t *testing.T) {
	l := New()
	require.NoError(t, l.Credit(alice, big.NewInt(10)))

	assert.ErrorIs(t, l.Transfer(alice, bob, big.NewInt(11)), ErrInsufficientFunds)

	// Nothing moved.
	assert.Equal(t, big.NewInt(10), l.BalanceOf(alice))
	assert.Equal(t, big.NewInt(0), l.BalanceOf(bob))
}

func TestLedger_BalanceOf_Copy(t *testing.T) {
	l := New()
	require.NoError(t, l.Credit(alice, big.NewInt(100)))

	// Mutating the returned value must not touch the stored balance.
	l.BalanceOf(alice).SetInt64(0)
	assert.Equal(t, big.NewInt(100), l.BalanceOf(alice))
}

func TestLedger_Clear(t *testing.T) {
	l := New()
	require.NoError(t, l.Credit(alice, big.NewInt(100)))

	l.Clear()
	assert.Equal(t, big.NewInt(0), l.BalanceOf(alice))
}

func TestLedger_Transfer_Concurrent(t *testing.T) {
	l := New()
	require.NoError(t, l.Credit(alice, big.NewInt(1000)))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Transfer(alice, bob, big.NewInt(10)))
		}()
	}
	wg.Wait()

	assert.Equal(t, big.NewInt(0), l.BalanceOf(alice))
	assert.Equal(t, big.NewInt(1000), l.BalanceOf(bob))
}
