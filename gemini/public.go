package gemini

import "context"

// GetSymbols returns every tradable symbol, e.g. "btcusd".
func (c *Client) GetSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	if err := c.get(ctx, "symbols", nil, &symbols); err != nil {
		return nil, err
	}
	return symbols, nil
}

func (c *Client) GetTicker(ctx context.Context, symbol string) (*Ticker, error) {
	var ticker Ticker
	if err := c.get(ctx, "pubticker/"+segment(symbol), nil, &ticker); err != nil {
		return nil, err
	}
	return &ticker, nil
}

// GetOrderBook returns the current book. params may be nil.
func (c *Client) GetOrderBook(ctx context.Context, symbol string, params *OrderBookParams) (*OrderBook, error) {
	var book OrderBook
	if err := c.get(ctx, "book/"+segment(symbol), params, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// GetTradeHistory returns recent public trades, newest first. params may be nil.
func (c *Client) GetTradeHistory(ctx context.Context, symbol string, params *TradeHistoryParams) ([]Trade, error) {
	var trades []Trade
	if err := c.get(ctx, "trades/"+segment(symbol), params, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}

func (c *Client) GetCurrentAuction(ctx context.Context, symbol string) (*Auction, error) {
	var auction Auction
	if err := c.get(ctx, "auction/"+segment(symbol), nil, &auction); err != nil {
		return nil, err
	}
	return &auction, nil
}

// GetAuctionHistory returns past auction events. params may be nil.
func (c *Client) GetAuctionHistory(ctx context.Context, symbol string, params *AuctionHistoryParams) ([]AuctionEvent, error) {
	var events []AuctionEvent
	if err := c.get(ctx, "auction/"+segment(symbol)+"/history", params, &events); err != nil {
		return nil, err
	}
	return events, nil
}
