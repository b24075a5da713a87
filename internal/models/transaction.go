package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatusKind is the tag of a transaction status.
type StatusKind string

const (
	StatusPending   StatusKind = "Pending"
	StatusSuccess   StatusKind = "Success"
	StatusCancelled StatusKind = "Cancelled"
	StatusFailed    StatusKind = "Failed"
	StatusTimedOut  StatusKind = "TimedOut"
)

// TransactionStatus is the state of an STK push. Reason is only set for StatusFailed.
type TransactionStatus struct {
	Kind   StatusKind `json:"kind"`
	Reason string     `json:"reason,omitempty"`
}

func Pending() TransactionStatus   { return TransactionStatus{Kind: StatusPending} }
func Succeeded() TransactionStatus { return TransactionStatus{Kind: StatusSuccess} }
func Cancelled() TransactionStatus { return TransactionStatus{Kind: StatusCancelled} }
func TimedOut() TransactionStatus  { return TransactionStatus{Kind: StatusTimedOut} }

func Failed(reason string) TransactionStatus {
	return TransactionStatus{Kind: StatusFailed, Reason: reason}
}

// IsTerminal reports whether no further transition is allowed.
func (s TransactionStatus) IsTerminal() bool {
	return s.Kind != StatusPending
}

func (s TransactionStatus) String() string {
	if s.Kind == StatusFailed && s.Reason != "" {
		return fmt.Sprintf("%s: %s", s.Kind, s.Reason)
	}
	return string(s.Kind)
}

// APIValue is the lowercase status used by the polling endpoints.
func (s TransactionStatus) APIValue() string {
	switch s.Kind {
	case StatusTimedOut:
		return "timeout"
	default:
		return strings.ToLower(string(s.Kind))
	}
}

// ParseStatusKind validates a persisted status tag.
func ParseStatusKind(raw string) (StatusKind, error) {
	switch k := StatusKind(raw); k {
	case StatusPending, StatusSuccess, StatusCancelled, StatusFailed, StatusTimedOut:
		return k, nil
	}
	return "", fmt.Errorf("unknown transaction status %q", raw)
}

// Transaction is one STK push attempt for a plan.
type Transaction struct {
	ID                uuid.UUID         `json:"id" db:"id"`
	PhoneNumber       string            `json:"phone_number" db:"phone_number"`
	PlanID            uuid.UUID         `json:"plan_id" db:"plan_id"`
	Amount            decimal.Decimal   `json:"amount" db:"amount"`
	CheckoutRequestID *string           `json:"checkout_request_id" db:"checkout_request_id"`
	MerchantRequestID string            `json:"merchant_request_id" db:"merchant_request_id"`
	ReceiptNumber     *string           `json:"receipt_number,omitempty" db:"receipt_number"`
	Status            TransactionStatus `json:"status" db:"status"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" db:"updated_at"`
}
