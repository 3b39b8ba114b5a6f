package trading

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingagents/internal/logging"
	"tradingagents/internal/server/ports"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(logging.Nop())
	require.NoError(t, err)
	return svc
}

func TestBuyAndPortfolio(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	result, err := svc.Buy(ctx, ports.TradeRequest{Symbol: "nvda", Quantity: 10, Price: 100})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "NVDA", result.Symbol)
	assert.Equal(t, 1000.0, result.Total)

	view, err := svc.Portfolio(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaultStartingCash-1000, view.Cash)
	require.Contains(t, view.Positions, "NVDA")
	assert.Equal(t, 10, view.Positions["NVDA"].Quantity)
	assert.Equal(t, 100.0, view.Positions["NVDA"].AvgPrice)
}

func TestBuyAveragesPrice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Buy(ctx, ports.TradeRequest{Symbol: "AAPL", Quantity: 10, Price: 100})
	require.NoError(t, err)
	_, err = svc.Buy(ctx, ports.TradeRequest{Symbol: "AAPL", Quantity: 10, Price: 200})
	require.NoError(t, err)

	view, err := svc.Portfolio(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, view.Positions["AAPL"].Quantity)
	assert.Equal(t, 150.0, view.Positions["AAPL"].AvgPrice)
}

func TestBuyInsufficientFunds(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Buy(context.Background(), ports.TradeRequest{Symbol: "BRK", Quantity: 1000, Price: 1000})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "insufficient funds")

	view, err := svc.Portfolio(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaultStartingCash, view.Cash)
}

func TestSellClosesPosition(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Buy(ctx, ports.TradeRequest{Symbol: "MSFT", Quantity: 5, Price: 200})
	require.NoError(t, err)

	result, err := svc.Sell(ctx, ports.TradeRequest{Symbol: "MSFT", Quantity: 5, Price: 250})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, 1250.0, result.Total)

	view, err := svc.Portfolio(ctx)
	require.NoError(t, err)
	assert.NotContains(t, view.Positions, "MSFT")
	assert.Equal(t, defaultStartingCash+250, view.Cash)
}

func TestSellWithoutPosition(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Sell(context.Background(), ports.TradeRequest{Symbol: "GME", Quantity: 1})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "insufficient position")
}

func TestRejectsNonPositiveQuantity(t *testing.T) {
	svc := newTestService(t)

	buy, err := svc.Buy(context.Background(), ports.TradeRequest{Symbol: "NVDA", Quantity: 0})
	require.NoError(t, err)
	assert.False(t, buy.Success)

	sell, err := svc.Sell(context.Background(), ports.TradeRequest{Symbol: "NVDA", Quantity: -3})
	require.NoError(t, err)
	assert.False(t, sell.Success)
}

func TestQuoteIsStable(t *testing.T) {
	svc := newTestService(t)

	first := svc.quote("NVDA")
	second := svc.quote("NVDA")
	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first, 20.0)
}
