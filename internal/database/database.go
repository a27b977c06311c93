package database

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/web3guy0/gemini/gemini"
)

// Database is a local journal of orders, fills and balances.
type Database struct {
	db *gorm.DB
}

// Models

type Order struct {
	OrderID         string `gorm:"primaryKey"`
	ClientOrderID   string `gorm:"index"`
	Symbol          string `gorm:"index"`
	Side            string
	Type            string
	Price           decimal.Decimal `gorm:"type:decimal(30,10)"`
	OriginalAmount  decimal.Decimal `gorm:"type:decimal(30,10)"`
	ExecutedAmount  decimal.Decimal `gorm:"type:decimal(30,10)"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(30,10)"`
	AvgPrice        decimal.Decimal `gorm:"type:decimal(30,10)"`
	IsLive          bool
	IsCancelled     bool
	PlacedAt        time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Fill struct {
	TID           int64  `gorm:"column:tid;primaryKey;autoIncrement:false"`
	Symbol        string `gorm:"index"`
	OrderID       string `gorm:"index"`
	ClientOrderID string
	Type          string          // "Buy" or "Sell"
	Price         decimal.Decimal `gorm:"type:decimal(30,10)"`
	Amount        decimal.Decimal `gorm:"type:decimal(30,10)"`
	FeeCurrency   string
	FeeAmount     decimal.Decimal `gorm:"type:decimal(30,10)"`
	Aggressor     bool
	IsAuctionFill bool
	Timestamp     int64 `gorm:"index"` // seconds
	TimestampMS   int64 `gorm:"column:timestamp_ms"`
	CreatedAt     time.Time
}

type BalanceSnapshot struct {
	ID                     uint   `gorm:"primaryKey;autoIncrement"`
	Currency               string `gorm:"index"`
	Type                   string
	Amount                 decimal.Decimal `gorm:"type:decimal(30,10)"`
	Available              decimal.Decimal `gorm:"type:decimal(30,10)"`
	AvailableForWithdrawal decimal.Decimal `gorm:"type:decimal(30,10)"`
	TakenAt                time.Time       `gorm:"index"`
}

func New(dbPath string) (*Database, error) {
	var db *gorm.DB
	var err error

	// Check if this is a PostgreSQL connection string
	if strings.HasPrefix(dbPath, "postgres://") || strings.HasPrefix(dbPath, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Database connected (PostgreSQL)")
	} else {
		// SQLite fallback
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Debug().Str("path", dbPath).Msg("Database initialized (SQLite)")
	}

	if err := db.AutoMigrate(&Order{}, &Fill{}, &BalanceSnapshot{}); err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Order operations

// SaveOrder inserts or updates the order keyed by its exchange id.
func (d *Database) SaveOrder(o *gemini.OrderStatus) error {
	order := Order{
		OrderID:         o.OrderID,
		ClientOrderID:   o.ClientOrderID,
		Symbol:          o.Symbol,
		Side:            string(o.Side),
		Type:            string(o.Type),
		Price:           o.Price,
		OriginalAmount:  o.OriginalAmount,
		ExecutedAmount:  o.ExecutedAmount,
		RemainingAmount: o.RemainingAmount,
		AvgPrice:        o.AvgExecutionPrice,
		IsLive:          o.IsLive,
		IsCancelled:     o.IsCancelled,
	}
	if o.TimestampMS > 0 {
		order.PlacedAt = time.UnixMilli(o.TimestampMS)
	}
	// created_at keeps the time the order was first journaled
	return d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"client_order_id", "symbol", "side", "type", "price",
			"original_amount", "executed_amount", "remaining_amount", "avg_price",
			"is_live", "is_cancelled", "placed_at", "updated_at",
		}),
	}).Create(&order).Error
}

func (d *Database) GetOrder(orderID string) (*Order, error) {
	var order Order
	err := d.db.First(&order, "order_id = ?", orderID).Error
	return &order, err
}

// LiveOrders returns journaled orders last seen live, oldest first.
func (d *Database) LiveOrders() ([]Order, error) {
	var orders []Order
	err := d.db.Where("is_live = ?", true).Order("placed_at").Find(&orders).Error
	return orders, err
}

// Fill operations

// SaveFills stores fills for symbol, skipping trade ids already journaled.
// It returns how many rows were new.
func (d *Database) SaveFills(symbol string, trades []gemini.PastTrade) (int, error) {
	inserted := 0
	err := d.db.Transaction(func(tx *gorm.DB) error {
		for _, t := range trades {
			fill := Fill{
				TID:           t.TID,
				Symbol:        strings.ToLower(symbol),
				OrderID:       t.OrderID,
				ClientOrderID: t.ClientOrderID,
				Type:          t.Type,
				Price:         t.Price,
				Amount:        t.Amount,
				FeeCurrency:   t.FeeCurrency,
				FeeAmount:     t.FeeAmount,
				Aggressor:     t.Aggressor,
				IsAuctionFill: t.IsAuctionFill,
				Timestamp:     t.Timestamp,
				TimestampMS:   t.TimestampMS,
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fill)
			if res.Error != nil {
				return res.Error
			}
			inserted += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// LastFillTimestamp returns the newest journaled fill time for symbol in
// seconds, or 0 when there is none.
func (d *Database) LastFillTimestamp(symbol string) (int64, error) {
	var fill Fill
	err := d.db.Where("symbol = ?", strings.ToLower(symbol)).Order("timestamp DESC").First(&fill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return fill.Timestamp, nil
}

// RecentFills returns up to limit fills for symbol, newest first.
func (d *Database) RecentFills(symbol string, limit int) ([]Fill, error) {
	var fills []Fill
	err := d.db.Where("symbol = ?", strings.ToLower(symbol)).
		Order("timestamp_ms DESC").Order("tid DESC").
		Limit(limit).Find(&fills).Error
	return fills, err
}

// Balance operations

// SaveBalances records one snapshot row per currency, all stamped with the
// same time.
func (d *Database) SaveBalances(balances []gemini.Balance) error {
	if len(balances) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]BalanceSnapshot, 0, len(balances))
	for _, b := range balances {
		rows = append(rows, BalanceSnapshot{
			Currency:               b.Currency,
			Type:                   b.Type,
			Amount:                 b.Amount,
			Available:              b.Available,
			AvailableForWithdrawal: b.AvailableForWithdrawal,
			TakenAt:                now,
		})
	}
	return d.db.Create(&rows).Error
}

// LatestBalances returns the most recent snapshot.
func (d *Database) LatestBalances() ([]BalanceSnapshot, error) {
	var rows []BalanceSnapshot
	if err := d.db.Order("taken_at DESC").Order("currency").Limit(500).Find(&rows).Error; err != nil {
		return nil, err
	}

	for i := range rows {
		if !rows[i].TakenAt.Equal(rows[0].TakenAt) {
			return rows[:i], nil
		}
	}
	return rows, nil
}
