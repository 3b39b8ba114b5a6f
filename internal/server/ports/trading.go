package ports

import "context"

// TradeRequest asks the trading service to buy or sell a quantity of a symbol.
type TradeRequest struct {
	Symbol   string  `json:"symbol" binding:"required"`
	Quantity int     `json:"quantity" binding:"required"`
	Price    float64 `json:"price,omitempty"`
}

// TradeResult is the trading service's own success/error shape.
type TradeResult struct {
	Success  bool    `json:"success"`
	Message  string  `json:"message"`
	Symbol   string  `json:"symbol,omitempty"`
	Quantity int     `json:"quantity,omitempty"`
	Price    float64 `json:"price,omitempty"`
	Total    float64 `json:"total,omitempty"`
}

// Position is one holding in the simulated portfolio.
type Position struct {
	Symbol   string  `json:"symbol"`
	Quantity int     `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
}

// PortfolioView is the current state of the simulated portfolio.
type PortfolioView struct {
	Cash       float64             `json:"cash"`
	Positions  map[string]Position `json:"positions"`
	TotalValue float64             `json:"total_value"`
}

// TradingService simulates order execution. It is an injected collaborator
// with its own independent result shape; analysis sessions never call it.
type TradingService interface {
	Buy(ctx context.Context, req TradeRequest) (TradeResult, error)
	Sell(ctx context.Context, req TradeRequest) (TradeResult, error)
	Portfolio(ctx context.Context) (PortfolioView, error)
}
