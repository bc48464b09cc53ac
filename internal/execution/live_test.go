package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FKdevelopers254/automatedbotrader/internal/domain"
)

func TestLiveExecutor_BuyPlacesAndSettles(t *testing.T) {
	placer := &MockPlacer{}
	ledger := domain.NewLedger()
	ledger.Credit("USDT", d("1000"))
	exec := NewLiveExecutor(placer, testLogger())

	out, err := exec.Execute(context.Background(), domain.Buy, btcUSDT(), d("0.01"), d("30000"), ledger)
	require.NoError(t, err)

	require.Len(t, placer.Orders, 1)
	assert.Equal(t, "BTC-USDT", placer.Orders[0].Symbol)
	assert.Equal(t, "buy", placer.Orders[0].Side)
	assert.True(t, placer.Orders[0].Size.Equal(d("0.01")))

	assert.Equal(t, domain.OutcomeFilled, out.Kind)
	assert.True(t, ledger.Balance("USDT").Equal(d("700")))
	assert.True(t, ledger.Balance("BTC").Equal(d("0.01")))
}

func TestLiveExecutor_RejectsBeforePlacing(t *testing.T) {
	placer := &MockPlacer{}
	ledger := domain.NewLedger()
	ledger.Credit("USDT", d("100"))
	exec := NewLiveExecutor(placer, testLogger())

	out, err := exec.Execute(context.Background(), domain.Buy, btcUSDT(), d("0.01"), d("30000"), ledger)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeRejected, out.Kind)
	assert.Equal(t, domain.ReasonInsufficientQuote, out.Reason)
	assert.Empty(t, placer.Orders, "rejected order must not reach the exchange")
}

func TestLiveExecutor_ExchangeError(t *testing.T) {
	placer := &MockPlacer{Err: errors.New("connection reset")}
	ledger := domain.NewLedger()
	ledger.Credit("USDT", d("1000"))
	exec := NewLiveExecutor(placer, testLogger())

	_, err := exec.Execute(context.Background(), domain.Buy, btcUSDT(), d("0.01"), d("30000"), ledger)
	require.Error(t, err)

	// The ledger must not record a fill that never happened.
	assert.True(t, ledger.Balance("USDT").Equal(d("1000")))
	assert.True(t, ledger.Balance("BTC").IsZero())
}

func TestNewExecutor_Modes(t *testing.T) {
	t.Run("paper", func(t *testing.T) {
		exec, err := NewExecutor(ModePaper, nil, testLogger())
		require.NoError(t, err)
		_, ok := exec.(*PaperExecutor)
		assert.True(t, ok)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := NewExecutor(Mode("YOLO"), nil, testLogger())
		require.Error(t, err)
	})

	t.Run("live without latch panics", func(t *testing.T) {
		t.Setenv("CONFIRM_REAL_MONEY", "")
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic without CONFIRM_REAL_MONEY")
			}
		}()
		NewExecutor(ModeLive, &MockPlacer{}, testLogger())
	})

	t.Run("live with latch", func(t *testing.T) {
		t.Setenv("CONFIRM_REAL_MONEY", "true")
		exec, err := NewExecutor(ModeLive, &MockPlacer{}, testLogger())
		require.NoError(t, err)
		_, ok := exec.(*LiveExecutor)
		assert.True(t, ok)
	})
}
