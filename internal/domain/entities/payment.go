package entities

import (
	"strings"
	"time"
)

// PaymentStatus is the billing state of a store's subscription
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusOverdue PaymentStatus = "Overdue"
)

// PaymentMethod is how a store pays
type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "Credit Card"
	PaymentMethodBankTransfer PaymentMethod = "Bank Transfer"
	PaymentMethodPayPal       PaymentMethod = "PayPal"
)

// Payment is the current subscription billing record of a store
type Payment struct {
	ID              string           `json:"id" db:"id"`
	StoreID         string           `json:"store_id" db:"store_id"`
	StoreName       string           `json:"store_name" db:"store_name"`
	Plan            SubscriptionTier `json:"plan" db:"plan"`
	Amount          Money            `json:"amount" db:"amount_cents"`
	Status          PaymentStatus    `json:"status" db:"status"`
	DueDate         time.Time        `json:"due_date" db:"due_date"`
	LastPaymentDate *time.Time       `json:"last_payment_date,omitempty" db:"last_payment_date"`
	Method          PaymentMethod    `json:"method" db:"method"`
	TransactionID   string           `json:"transaction_id,omitempty" db:"last_transaction_ref"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

// Clone returns a copy that shares no pointers with p
func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	out := *p
	if p.LastPaymentDate != nil {
		t := *p.LastPaymentDate
		out.LastPaymentDate = &t
	}
	return &out
}

// PaymentTransaction is one settled or attempted charge, the source of the
// payment history and monthly reports
type PaymentTransaction struct {
	ID            string           `json:"id" db:"id"`
	PaymentID     string           `json:"payment_id" db:"payment_id"`
	StoreID       string           `json:"store_id" db:"store_id"`
	StoreName     string           `json:"store_name" db:"store_name"`
	Date          time.Time        `json:"date" db:"transaction_date"`
	Amount        Money            `json:"amount" db:"amount_cents"`
	Plan          SubscriptionTier `json:"plan" db:"plan"`
	Status        PaymentStatus    `json:"status" db:"status"`
	Method        PaymentMethod    `json:"method" db:"method"`
	TransactionID string           `json:"transaction_id" db:"transaction_ref"`
}

// ParsePaymentStatus accepts any casing of a payment status
func ParsePaymentStatus(value string) (PaymentStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "paid":
		return PaymentStatusPaid, true
	case "pending":
		return PaymentStatusPending, true
	case "overdue":
		return PaymentStatusOverdue, true
	}
	return "", false
}

// ParsePaymentMethod accepts any casing of a payment method
func ParsePaymentMethod(value string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.Join(strings.Fields(value), " ")) {
	case "credit card", "card":
		return PaymentMethodCreditCard, true
	case "bank transfer", "bank":
		return PaymentMethodBankTransfer, true
	case "paypal":
		return PaymentMethodPayPal, true
	}
	return "", false
}
