package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/gemini/gemini"
)

// ═══════════════════════════════════════════════════════════════════════════════
// NOTIFICATIONS - Account activity alerts
// ═══════════════════════════════════════════════════════════════════════════════

// Notifier delivers a Markdown message somewhere a human will see it.
type Notifier interface {
	Send(text string) error
}

// Nop drops every message.
type Nop struct{}

func (Nop) Send(string) error { return nil }

// FormatOrder renders an order acknowledgement.
func FormatOrder(o *gemini.OrderStatus) string {
	emoji := "🟢"
	if o.Side == gemini.SideSell {
		emoji = "🔴"
	}

	status := "LIVE"
	switch {
	case o.IsCancelled:
		status = "CANCELLED"
	case !o.IsLive && o.RemainingAmount.IsZero():
		status = "FILLED"
	}

	return fmt.Sprintf(`%s *ORDER %s*

📊 %s %s
💵 Price: *%s*
📦 Amount: *%s* (filled %s)
🆔 %s`,
		emoji, status,
		strings.ToUpper(string(o.Side)), escape(strings.ToUpper(o.Symbol)),
		o.Price.String(),
		o.OriginalAmount.String(), o.ExecutedAmount.String(),
		escape(o.OrderID),
	)
}

// FormatCancel renders the result of a bulk cancel.
func FormatCancel(scope string, r *gemini.CancelResult) string {
	msg := fmt.Sprintf(`🛑 *CANCEL %s*

✅ Cancelled: *%d*`,
		escape(strings.ToUpper(scope)), len(r.Details.CancelledOrders))

	if n := len(r.Details.CancelRejects); n > 0 {
		msg += fmt.Sprintf("\n⚠️ Rejected: *%d*", n)
	}
	return msg
}

// FormatWithdrawal renders a crypto withdrawal.
func FormatWithdrawal(currency string, w *gemini.Withdrawal) string {
	msg := fmt.Sprintf(`💸 *WITHDRAWAL*

🪙 %s %s
📬 %s`,
		w.Amount.String(), escape(strings.ToUpper(currency)),
		escape(shorten(w.Address)),
	)
	if w.TxHash != "" {
		msg += "\n🔗 " + escape(shorten(w.TxHash))
	}
	if w.Message != "" {
		msg += "\n📝 " + escape(w.Message)
	}
	return msg
}

// FormatBalances renders non-zero balances, one per line.
func FormatBalances(balances []gemini.Balance) string {
	var b strings.Builder
	b.WriteString("💰 *BALANCES*\n")
	for _, bal := range balances {
		if bal.Amount.Equal(decimal.Zero) {
			continue
		}
		fmt.Fprintf(&b, "\n%s: *%s* (available %s)", escape(bal.Currency), bal.Amount.String(), bal.Available.String())
	}
	return b.String()
}

// escape quotes exchange-supplied text for Telegram's Markdown parse mode.
func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func shorten(s string) string {
	if len(s) <= 16 {
		return s
	}
	return s[:8] + "…" + s[len(s)-6:]
}
