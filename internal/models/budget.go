package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Budget is a spending limit scoped to one category over [StartDate, EndDate].
// SpentAmount is derived from the transaction journal and is only written by
// the aggregation engine.
type Budget struct {
	Base
	Name                  string          `gorm:"size:100;not null" json:"name"`
	Limit                 decimal.Decimal `gorm:"column:budget_limit;type:decimal(12,2);not null" json:"budget_limit"`
	SpentAmount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"spent_amount"`
	StartDate             time.Time       `gorm:"not null;index" json:"start_date"`
	EndDate               time.Time       `gorm:"not null;index" json:"end_date"`
	CategoryID            string          `gorm:"type:uuid;not null;index" json:"category_id"`
	NotificationThreshold *int            `json:"notification_threshold,omitempty"`
	IsActive              bool            `gorm:"not null" json:"is_active"`
	Notes                 string          `gorm:"size:500" json:"notes"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// Remaining returns Limit - SpentAmount. A negative value means the budget
// has been exceeded.
func (b *Budget) Remaining() decimal.Decimal {
	return b.Limit.Sub(b.SpentAmount)
}

// IsExceeded reports whether strictly more than the limit has been spent.
func (b *Budget) IsExceeded() bool {
	return b.SpentAmount.GreaterThan(b.Limit)
}

// PercentageSpent returns SpentAmount / Limit * 100. The ratio is rounded
// half-up to 4 fractional digits before scaling. A zero limit yields 0.
func (b *Budget) PercentageSpent() float64 {
	if b.Limit.IsZero() {
		return 0
	}
	return b.SpentAmount.DivRound(b.Limit, 4).Mul(hundred).InexactFloat64()
}

// IsWithinThreshold reports whether a notification threshold is set and the
// spent amount has reached Limit * round2(threshold/100).
func (b *Budget) IsWithinThreshold() bool {
	if b.NotificationThreshold == nil {
		return false
	}
	ratio := decimal.NewFromInt(int64(*b.NotificationThreshold)).DivRound(hundred, 2)
	return b.SpentAmount.GreaterThanOrEqual(b.Limit.Mul(ratio))
}

// Contains reports whether day falls inside the budget period, inclusive.
func (b *Budget) Contains(day time.Time) bool {
	day = DateOf(day)
	return !day.Before(b.StartDate) && !day.After(b.EndDate)
}

// PeriodsOverlap reports whether [s1,e1] and [s2,e2] share at least one day.
// Periods touching on a single day overlap.
func PeriodsOverlap(s1, e1, s2, e2 time.Time) bool {
	return !s1.After(e2) && !s2.After(e1)
}
