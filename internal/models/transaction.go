package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// PaymentMethod represents how a transaction was paid
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

var paymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodBankTransfer,
	PaymentMethodMobileMoney,
	PaymentMethodOther,
}

// ParseTransactionType converts free text (any case, surrounding spaces
// ignored) into a TransactionType. ok is false for unknown values.
func ParseTransactionType(s string) (t TransactionType, ok bool) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case TransactionTypeIncome:
		return TransactionTypeIncome, true
	case TransactionTypeExpense:
		return TransactionTypeExpense, true
	}
	return "", false
}

// ParsePaymentMethod converts free text into a PaymentMethod. ok is false for
// unknown values.
func ParsePaymentMethod(s string) (m PaymentMethod, ok bool) {
	candidate := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	for _, pm := range paymentMethods {
		if pm == candidate {
			return pm, true
		}
	}
	return "", false
}

// Transaction is a single dated income or expense, optionally categorized.
type Transaction struct {
	Base
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Type            TransactionType `gorm:"size:16;not null;index" json:"type"`
	Date            time.Time       `gorm:"column:transaction_date;not null;index" json:"transaction_date"`
	CategoryID      *string         `gorm:"type:uuid;index" json:"category_id,omitempty"`
	PaymentMethod   *PaymentMethod  `gorm:"size:32" json:"payment_method,omitempty"`
	Recurring       bool            `gorm:"column:is_recurring;not null;default:false" json:"recurring"`
	ReferenceNumber string          `gorm:"size:50" json:"reference_number,omitempty"`
	Description     string          `gorm:"size:255" json:"description"`
	Notes           string          `gorm:"size:1000" json:"notes,omitempty"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
