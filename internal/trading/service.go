package trading

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"tradingagents/internal/logging"
	"tradingagents/internal/server/ports"
)

const (
	defaultStartingCash = 100_000.0
	quoteCacheSize      = 256
)

// Service is an in-memory paper-trading implementation of
// ports.TradingService. Quotes come from a deterministic pseudo-feed behind
// an LRU cache, standing in for a market-data lookup.
type Service struct {
	mu        sync.Mutex
	cash      float64
	positions map[string]ports.Position
	quotes    *lru.Cache[string, float64]
	logger    logging.Logger
}

// NewService creates a paper-trading service with the default starting cash.
func NewService(logger logging.Logger) (*Service, error) {
	cache, err := lru.New[string, float64](quoteCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create quote cache: %w", err)
	}
	return &Service{
		cash:      defaultStartingCash,
		positions: make(map[string]ports.Position),
		quotes:    cache,
		logger:    logging.OrNop(logger),
	}, nil
}

// Buy executes a simulated buy order.
func (s *Service) Buy(ctx context.Context, req ports.TradeRequest) (ports.TradeResult, error) {
	if req.Quantity <= 0 {
		return ports.TradeResult{Success: false, Message: "quantity must be positive"}, nil
	}
	symbol := normalizeSymbol(req.Symbol)
	price := req.Price
	if price <= 0 {
		price = s.quote(symbol)
	}
	total := price * float64(req.Quantity)

	s.mu.Lock()
	defer s.mu.Unlock()

	if total > s.cash {
		return ports.TradeResult{
			Success: false,
			Message: fmt.Sprintf("insufficient funds: need %.2f, have %.2f", total, s.cash),
			Symbol:  symbol,
		}, nil
	}

	s.cash -= total
	pos := s.positions[symbol]
	held := float64(pos.Quantity)
	pos.Symbol = symbol
	pos.AvgPrice = (pos.AvgPrice*held + total) / (held + float64(req.Quantity))
	pos.Quantity += req.Quantity
	s.positions[symbol] = pos

	s.logger.Info("Bought %d %s @ %.2f", req.Quantity, symbol, price)
	return ports.TradeResult{
		Success:  true,
		Message:  fmt.Sprintf("bought %d %s", req.Quantity, symbol),
		Symbol:   symbol,
		Quantity: req.Quantity,
		Price:    price,
		Total:    total,
	}, nil
}

// Sell executes a simulated sell order.
func (s *Service) Sell(ctx context.Context, req ports.TradeRequest) (ports.TradeResult, error) {
	if req.Quantity <= 0 {
		return ports.TradeResult{Success: false, Message: "quantity must be positive"}, nil
	}
	symbol := normalizeSymbol(req.Symbol)
	price := req.Price
	if price <= 0 {
		price = s.quote(symbol)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[symbol]
	if !ok || pos.Quantity < req.Quantity {
		return ports.TradeResult{
			Success: false,
			Message: fmt.Sprintf("insufficient position: have %d %s", pos.Quantity, symbol),
			Symbol:  symbol,
		}, nil
	}

	total := price * float64(req.Quantity)
	s.cash += total
	pos.Quantity -= req.Quantity
	if pos.Quantity == 0 {
		delete(s.positions, symbol)
	} else {
		s.positions[symbol] = pos
	}

	s.logger.Info("Sold %d %s @ %.2f", req.Quantity, symbol, price)
	return ports.TradeResult{
		Success:  true,
		Message:  fmt.Sprintf("sold %d %s", req.Quantity, symbol),
		Symbol:   symbol,
		Quantity: req.Quantity,
		Price:    price,
		Total:    total,
	}, nil
}

// Portfolio returns the current simulated portfolio valued at quote prices.
func (s *Service) Portfolio(ctx context.Context) (ports.PortfolioView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := ports.PortfolioView{
		Cash:      s.cash,
		Positions: make(map[string]ports.Position, len(s.positions)),
	}
	view.TotalValue = s.cash
	for symbol, pos := range s.positions {
		view.Positions[symbol] = pos
		view.TotalValue += s.quote(symbol) * float64(pos.Quantity)
	}
	return view, nil
}

// quote returns a stable pseudo-price for a symbol, cached in the LRU.
func (s *Service) quote(symbol string) float64 {
	if price, ok := s.quotes.Get(symbol); ok {
		return price
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	price := 20.0 + float64(h.Sum32()%48000)/100.0
	s.quotes.Add(symbol, price)
	return price
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
