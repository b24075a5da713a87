package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"hotspotpay/internal/common"
	"hotspotpay/internal/metrics"
	"hotspotpay/internal/models"
	"hotspotpay/internal/repositories"

	"github.com/google/uuid"
)

// SubscriptionReconciler turns a successful payment into access time.
type SubscriptionReconciler struct {
	now func() time.Time
}

func NewSubscriptionReconciler(now func() time.Time) *SubscriptionReconciler {
	if now == nil {
		now = time.Now
	}
	return &SubscriptionReconciler{now: now}
}

// Reconcile extends the phone's active grant on the transaction's plan by the plan
// validity, or opens a new grant starting now. subs must be bound to the database
// transaction that moved txn to Success so both effects commit together.
func (r *SubscriptionReconciler) Reconcile(ctx context.Context, subs repositories.SubscriptionRepository, txn *models.Transaction, plan *models.Plan) (*models.Subscription, error) {
	validity, defaulted := common.ParseValidity(plan.Validity)
	if defaulted {
		log.Printf("WARN: plan %s has unparseable validity %q, granting %s", plan.ID, plan.Validity, validity)
		metrics.ValidityFallbacksTotal.Inc()
	}

	now := r.now()

	if err := subs.LockPhone(ctx, txn.PhoneNumber); err != nil {
		return nil, err
	}

	active, err := subs.LatestActiveForPlan(ctx, txn.PhoneNumber, plan.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load active subscription: %w", err)
	}

	if active != nil {
		// Extend from the current end, not from now.
		newEnd := active.EndTime.Add(validity)
		if err := subs.UpdateEndTime(ctx, active.ID, newEnd); err != nil {
			return nil, err
		}
		active.EndTime = newEnd
		metrics.SubscriptionsGranted.WithLabelValues("extend").Inc()
		return active, nil
	}

	subscription := &models.Subscription{
		ID:          uuid.New(),
		PhoneNumber: txn.PhoneNumber,
		PlanID:      plan.ID,
		StartTime:   now,
		EndTime:     now.Add(validity),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := subs.Create(ctx, subscription); err != nil {
		return nil, err
	}
	metrics.SubscriptionsGranted.WithLabelValues("new").Inc()
	return subscription, nil
}
