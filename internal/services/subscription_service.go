package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hotspotpay/internal/common"
	"hotspotpay/internal/repositories"
)

const (
	StatusConnected    = "connected"
	StatusNotConnected = "not connected"
)

// SubscriptionService answers whether a phone currently has access
type SubscriptionService interface {
	CheckStatus(ctx context.Context, phoneNumber string) (*SubscriptionStatus, error)
}

type SubscriptionStatus struct {
	Status  string     `json:"status"`
	Plan    string     `json:"plan,omitempty"`
	Expires *time.Time `json:"expires,omitempty"`
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	now              func() time.Time
}

func NewSubscriptionService(subscriptionRepo repositories.SubscriptionRepository) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		now:              time.Now,
	}
}

func (s *subscriptionService) CheckStatus(ctx context.Context, phoneNumber string) (*SubscriptionStatus, error) {
	if strings.TrimSpace(phoneNumber) == "" {
		return nil, common.NewValidationError("phone_number", "phone_number parameter required")
	}

	phone, err := common.NormalizePhone(phoneNumber)
	if err != nil {
		return nil, err
	}

	active, err := s.subscriptionRepo.LatestActiveForPhone(ctx, phone, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to check subscription: %w", err)
	}
	if active == nil {
		return &SubscriptionStatus{Status: StatusNotConnected}, nil
	}

	expires := active.EndTime
	return &SubscriptionStatus{
		Status:  StatusConnected,
		Plan:    active.PlanValidity,
		Expires: &expires,
	}, nil
}
