package models

import "testing"

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		in   string
		want TransactionType
		ok   bool
	}{
		{"EXPENSE", TransactionTypeExpense, true},
		{" income ", TransactionTypeIncome, true},
		{"Expense", TransactionTypeExpense, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseTransactionType(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseTransactionType(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParsePaymentMethod(t *testing.T) {
	tests := []struct {
		in   string
		want PaymentMethod
		ok   bool
	}{
		{"cash", PaymentMethodCash, true},
		{"CREDIT_CARD", PaymentMethodCreditCard, true},
		{" debit_card", PaymentMethodDebitCard, true},
		{"bank_transfer", PaymentMethodBankTransfer, true},
		{"mobile_money", PaymentMethodMobileMoney, true},
		{"other", PaymentMethodOther, true},
		{"cheque", "", false},
	}
	for _, tc := range tests {
		got, ok := ParsePaymentMethod(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParsePaymentMethod(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
