package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is one access grant for a phone number. Rows are never deleted;
// a grant is active while EndTime is after the evaluation time.
type Subscription struct {
	ID          uuid.UUID `json:"id" db:"id"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	PlanID      uuid.UUID `json:"plan_id" db:"plan_id"`
	StartTime   time.Time `json:"start_time" db:"start_time"`
	EndTime     time.Time `json:"end_time" db:"end_time"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the grant still covers at.
func (s *Subscription) IsActive(at time.Time) bool {
	return s.EndTime.After(at)
}

// ActiveSubscription is a subscription joined with the plan it was bought on.
type ActiveSubscription struct {
	Subscription
	PlanName     string `json:"plan_name" db:"plan_name"`
	PlanValidity string `json:"plan_validity" db:"plan_validity"`
}
