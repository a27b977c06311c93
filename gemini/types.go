package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side of an order or trade
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType as accepted by order/new
type OrderType string

const (
	OrderTypeExchangeLimit     OrderType = "exchange limit"
	OrderTypeExchangeStopLimit OrderType = "exchange stop limit"
)

// OrderOption is an execution option for order/new. At most one may be sent.
type OrderOption string

const (
	OptionMakerOrCancel        OrderOption = "maker-or-cancel"
	OptionImmediateOrCancel    OrderOption = "immediate-or-cancel"
	OptionFillOrKill           OrderOption = "fill-or-kill"
	OptionAuctionOnly          OrderOption = "auction-only"
	OptionIndicationOfInterest OrderOption = "indication-of-interest"
)

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(s)) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", fmt.Errorf("invalid side %q", s)
}

// Ticker is the pubticker response.
type Ticker struct {
	Bid    decimal.Decimal `json:"bid"`
	Ask    decimal.Decimal `json:"ask"`
	Last   decimal.Decimal `json:"last"`
	Volume TickerVolume    `json:"volume"`
}

// TickerVolume holds the 24h volume per currency plus the timestamp the
// figures were taken at. On the wire both share one object:
//
//	{"BTC":"2210.5","USD":"2135477.46","timestamp":1483018200000}
type TickerVolume struct {
	Timestamp int64
	Amounts   map[string]decimal.Decimal
}

func (v *TickerVolume) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	v.Amounts = make(map[string]decimal.Decimal, len(raw))
	for k, val := range raw {
		if k == "timestamp" {
			if err := json.Unmarshal(val, &v.Timestamp); err != nil {
				return fmt.Errorf("volume timestamp: %w", err)
			}
			continue
		}

		var amount decimal.Decimal
		if err := json.Unmarshal(val, &amount); err != nil {
			return fmt.Errorf("volume %s: %w", k, err)
		}
		v.Amounts[k] = amount
	}
	return nil
}

func (v TickerVolume) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(v.Amounts)+1)
	for k, amount := range v.Amounts {
		out[k] = amount
	}
	out["timestamp"] = v.Timestamp
	return json.Marshal(out)
}

// BookEntry is one price level of the order book.
type BookEntry struct {
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp string          `json:"timestamp"`
}

type OrderBook struct {
	Bids []BookEntry `json:"bids"`
	Asks []BookEntry `json:"asks"`
}

// Trade is a public trade from trades/{symbol}.
type Trade struct {
	Timestamp   int64           `json:"timestamp"`
	TimestampMS int64           `json:"timestampms"`
	TID         int64           `json:"tid"`
	Price       decimal.Decimal `json:"price"`
	Amount      decimal.Decimal `json:"amount"`
	Exchange    string          `json:"exchange"`
	Type        string          `json:"type"`
	Broken      bool            `json:"broken,omitempty"`
}

// Auction is the current auction state for a symbol. Fields for a phase that
// has not happened yet are zero.
type Auction struct {
	ClosedUntilMS int64 `json:"closed_until_ms,omitempty"`

	LastAuctionEID      int64           `json:"last_auction_eid,omitempty"`
	LastAuctionPrice    decimal.Decimal `json:"last_auction_price"`
	LastAuctionQuantity decimal.Decimal `json:"last_auction_quantity"`
	LastHighestBidPrice decimal.Decimal `json:"last_highest_bid_price"`
	LastLowestAskPrice  decimal.Decimal `json:"last_lowest_ask_price"`
	LastCollarPrice     decimal.Decimal `json:"last_collar_price"`

	MostRecentIndicativePrice    decimal.Decimal `json:"most_recent_indicative_price"`
	MostRecentIndicativeQuantity decimal.Decimal `json:"most_recent_indicative_quantity"`
	MostRecentHighestBidPrice    decimal.Decimal `json:"most_recent_highest_bid_price"`
	MostRecentLowestAskPrice     decimal.Decimal `json:"most_recent_lowest_ask_price"`
	MostRecentCollarPrice        decimal.Decimal `json:"most_recent_collar_price"`

	NextUpdateMS  int64 `json:"next_update_ms,omitempty"`
	NextAuctionMS int64 `json:"next_auction_ms,omitempty"`
}

// AuctionEvent is one entry of auction/{symbol}/history.
type AuctionEvent struct {
	AuctionID       int64           `json:"auction_id"`
	AuctionPrice    decimal.Decimal `json:"auction_price"`
	AuctionQuantity decimal.Decimal `json:"auction_quantity"`
	EID             int64           `json:"eid"`
	HighestBidPrice decimal.Decimal `json:"highest_bid_price"`
	LowestAskPrice  decimal.Decimal `json:"lowest_ask_price"`
	CollarPrice     decimal.Decimal `json:"collar_price"`
	AuctionResult   string          `json:"auction_result"`
	Timestamp       int64           `json:"timestamp"`
	TimestampMS     int64           `json:"timestampms"`
	EventType       string          `json:"event_type"`
}

// OrderStatus is returned by order/new, order/cancel, order/status and orders.
type OrderStatus struct {
	OrderID           string          `json:"order_id"`
	ID                string          `json:"id"`
	ClientOrderID     string          `json:"client_order_id,omitempty"`
	Symbol            string          `json:"symbol"`
	Exchange          string          `json:"exchange"`
	AvgExecutionPrice decimal.Decimal `json:"avg_execution_price"`
	Side              Side            `json:"side"`
	Type              OrderType       `json:"type"`
	Timestamp         string          `json:"timestamp"`
	TimestampMS       int64           `json:"timestampms"`
	IsLive            bool            `json:"is_live"`
	IsCancelled       bool            `json:"is_cancelled"`
	IsHidden          bool            `json:"is_hidden"`
	WasForced         bool            `json:"was_forced"`
	ExecutedAmount    decimal.Decimal `json:"executed_amount"`
	RemainingAmount   decimal.Decimal `json:"remaining_amount"`
	OriginalAmount    decimal.Decimal `json:"original_amount"`
	Price             decimal.Decimal `json:"price"`
	StopPrice         decimal.Decimal `json:"stop_price,omitempty"`
	Options           []OrderOption   `json:"options"`
}

// CancelResult is returned by the bulk cancel endpoints.
type CancelResult struct {
	Result  string `json:"result"`
	Details struct {
		CancelledOrders []int64 `json:"cancelledOrders"`
		CancelRejects   []int64 `json:"cancelRejects"`
	} `json:"details"`
}

// PastTrade is one of the account's own fills from mytrades.
type PastTrade struct {
	Price         decimal.Decimal `json:"price"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     int64           `json:"timestamp"`
	TimestampMS   int64           `json:"timestampms"`
	Type          string          `json:"type"`
	Aggressor     bool            `json:"aggressor"`
	FeeCurrency   string          `json:"fee_currency"`
	FeeAmount     decimal.Decimal `json:"fee_amount"`
	TID           int64           `json:"tid"`
	OrderID       string          `json:"order_id"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
	Exchange      string          `json:"exchange"`
	IsAuctionFill bool            `json:"is_auction_fill"`
	Break         string          `json:"break,omitempty"`
}

// TradeVolume is one symbol's 30 day volume row.
type TradeVolume struct {
	AccountID         int64           `json:"account_id"`
	Symbol            string          `json:"symbol"`
	BaseCurrency      string          `json:"base_currency"`
	NotionalCurrency  string          `json:"notional_currency"`
	DataDate          string          `json:"data_date"`
	TotalVolumeBase   decimal.Decimal `json:"total_volume_base"`
	MakerBuySellRatio decimal.Decimal `json:"maker_buy_sell_ratio"`
	BuyMakerBase      decimal.Decimal `json:"buy_maker_base"`
	BuyMakerNotional  decimal.Decimal `json:"buy_maker_notional"`
	BuyMakerCount     int64           `json:"buy_maker_count"`
	SellMakerBase     decimal.Decimal `json:"sell_maker_base"`
	SellMakerNotional decimal.Decimal `json:"sell_maker_notional"`
	SellMakerCount    int64           `json:"sell_maker_count"`
	BuyTakerBase      decimal.Decimal `json:"buy_taker_base"`
	BuyTakerNotional  decimal.Decimal `json:"buy_taker_notional"`
	BuyTakerCount     int64           `json:"buy_taker_count"`
	SellTakerBase     decimal.Decimal `json:"sell_taker_base"`
	SellTakerNotional decimal.Decimal `json:"sell_taker_notional"`
	SellTakerCount    int64           `json:"sell_taker_count"`
}

type Balance struct {
	Type                   string          `json:"type"`
	Currency               string          `json:"currency"`
	Amount                 decimal.Decimal `json:"amount"`
	Available              decimal.Decimal `json:"available"`
	AvailableForWithdrawal decimal.Decimal `json:"availableForWithdrawal"`
}

type DepositAddress struct {
	Currency string `json:"currency"`
	Address  string `json:"address"`
	Label    string `json:"label,omitempty"`
}

type Withdrawal struct {
	Address      string          `json:"address"`
	Amount       decimal.Decimal `json:"amount"`
	WithdrawalID string          `json:"withdrawalId"`
	TxHash       string          `json:"txHash"`
	Message      string          `json:"message,omitempty"`
}

// Result is the bare {"result":"ok"} acknowledgement.
type Result struct {
	Result string `json:"result"`
}
