package gemini

import (
	"context"

	"github.com/google/uuid"
)

// PlaceOrder submits a new order. An empty ClientOrderID gets a random UUID
// and an empty Type defaults to an exchange limit order.
func (c *Client) PlaceOrder(ctx context.Context, req NewOrderRequest) (*OrderStatus, error) {
	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}
	if req.Type == "" {
		req.Type = OrderTypeExchangeLimit
	}

	var order OrderStatus
	if err := c.post(ctx, "order/new", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID int64) (*OrderStatus, error) {
	var order OrderStatus
	if err := c.post(ctx, "order/cancel", CancelOrderRequest{OrderID: orderID}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelAllSessionOrders cancels the orders placed with this API key's session.
func (c *Client) CancelAllSessionOrders(ctx context.Context) (*CancelResult, error) {
	var result CancelResult
	if err := c.post(ctx, "order/cancel/session", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelAllActiveOrders cancels every live order on the account, whichever
// session placed it.
func (c *Client) CancelAllActiveOrders(ctx context.Context) (*CancelResult, error) {
	var result CancelResult
	if err := c.post(ctx, "order/cancel/all", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetOrderStatus(ctx context.Context, req OrderStatusRequest) (*OrderStatus, error) {
	var order OrderStatus
	if err := c.post(ctx, "order/status", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) GetActiveOrders(ctx context.Context) ([]OrderStatus, error) {
	var orders []OrderStatus
	if err := c.post(ctx, "orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetPastTrades returns the account's fills for a symbol, newest first.
func (c *Client) GetPastTrades(ctx context.Context, req PastTradesRequest) ([]PastTrade, error) {
	var trades []PastTrade
	if err := c.post(ctx, "mytrades", req, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}

func (c *Client) GetTradeVolume(ctx context.Context) ([][]TradeVolume, error) {
	var volume [][]TradeVolume
	if err := c.post(ctx, "tradevolume", nil, &volume); err != nil {
		return nil, err
	}
	return volume, nil
}

func (c *Client) GetAvailableBalances(ctx context.Context) ([]Balance, error) {
	var balances []Balance
	if err := c.post(ctx, "balances", nil, &balances); err != nil {
		return nil, err
	}
	return balances, nil
}

func (c *Client) GenerateDepositAddress(ctx context.Context, currency string, req DepositAddressRequest) (*DepositAddress, error) {
	var addr DepositAddress
	if err := c.post(ctx, "deposit/"+segment(currency)+"/newAddress", req, &addr); err != nil {
		return nil, err
	}
	return &addr, nil
}

// WithdrawCrypto sends funds to an approved address. The address must already
// be on the account's withdrawal allow list.
func (c *Client) WithdrawCrypto(ctx context.Context, currency string, req WithdrawRequest) (*Withdrawal, error) {
	var w Withdrawal
	if err := c.post(ctx, "withdraw/"+segment(currency), req, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// PingHeartbeat keeps a session alive when heartbeat is required on the key.
func (c *Client) PingHeartbeat(ctx context.Context) (*Result, error) {
	var result Result
	if err := c.post(ctx, "heartbeat", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
