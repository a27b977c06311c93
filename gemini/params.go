package gemini

import "github.com/shopspring/decimal"

// Query parameters for the public endpoints. Zero values are left out.

type OrderBookParams struct {
	LimitBids int `url:"limit_bids,omitempty"`
	LimitAsks int `url:"limit_asks,omitempty"`
}

type TradeHistoryParams struct {
	Since         int64 `url:"since,omitempty"`
	LimitTrades   int   `url:"limit_trades,omitempty"`
	IncludeBreaks bool  `url:"include_breaks,omitempty"`
}

type AuctionHistoryParams struct {
	Since               int64 `url:"since,omitempty"`
	LimitAuctionResults int   `url:"limit_auction_results,omitempty"`
	IncludeIndicative   bool  `url:"include_indicative,omitempty"`
}

// Request bodies for the private endpoints.

// NewOrderRequest is the body of order/new. ClientOrderID and Type are
// filled in by PlaceOrder when empty.
type NewOrderRequest struct {
	ClientOrderID string           `json:"client_order_id,omitempty"`
	Symbol        string           `json:"symbol"`
	Amount        decimal.Decimal  `json:"amount"`
	Price         decimal.Decimal  `json:"price"`
	Side          Side             `json:"side"`
	Type          OrderType        `json:"type"`
	StopPrice     *decimal.Decimal `json:"stop_price,omitempty"`
	Options       []OrderOption    `json:"options,omitempty"`
}

type CancelOrderRequest struct {
	OrderID int64 `json:"order_id"`
}

// OrderStatusRequest looks an order up by exchange id or client order id.
type OrderStatusRequest struct {
	OrderID       int64  `json:"order_id,omitempty"`
	ClientOrderID string `json:"client_order_id,omitempty"`
	IncludeTrades bool   `json:"include_trades,omitempty"`
}

type PastTradesRequest struct {
	Symbol      string `json:"symbol"`
	LimitTrades int    `json:"limit_trades,omitempty"`
	Timestamp   int64  `json:"timestamp,omitempty"`
}

type DepositAddressRequest struct {
	Label string `json:"label,omitempty"`
}

type WithdrawRequest struct {
	Address string          `json:"address"`
	Amount  decimal.Decimal `json:"amount"`
}
