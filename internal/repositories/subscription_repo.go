package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotspotpay/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SubscriptionRepository interface {
	// LockPhone serializes reconciliation for one phone number until the surrounding transaction ends.
	LockPhone(ctx context.Context, phoneNumber string) error
	// LatestActiveForPlan returns the active grant with the furthest end time for
	// (phone, plan), locked for update, or nil when there is none.
	LatestActiveForPlan(ctx context.Context, phoneNumber string, planID uuid.UUID, at time.Time) (*models.Subscription, error)
	// LatestActiveForPhone returns the active grant with the furthest end time on any plan, or nil.
	LatestActiveForPhone(ctx context.Context, phoneNumber string, at time.Time) (*models.ActiveSubscription, error)
	Create(ctx context.Context, subscription *models.Subscription) error
	UpdateEndTime(ctx context.Context, id uuid.UUID, endTime time.Time) error
}

type subscriptionRepo struct {
	db DBTX
}

func NewSubscriptionRepo(db DBTX) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) LockPhone(ctx context.Context, phoneNumber string) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, phoneNumber)
	if err != nil {
		return fmt.Errorf("lock phone %s: %w", phoneNumber, err)
	}
	return nil
}

func (r *subscriptionRepo) LatestActiveForPlan(ctx context.Context, phoneNumber string, planID uuid.UUID, at time.Time) (*models.Subscription, error) {
	subscription := &models.Subscription{}
	query := `
		SELECT id, phone_number, plan_id, start_time, end_time, created_at, updated_at
		FROM user_subscriptions
		WHERE phone_number = $1 AND plan_id = $2 AND end_time > $3
		ORDER BY end_time DESC
		LIMIT 1
		FOR UPDATE
	`
	err := r.db.QueryRow(ctx, query, phoneNumber, planID, at).Scan(&subscription.ID, &subscription.PhoneNumber, &subscription.PlanID, &subscription.StartTime, &subscription.EndTime, &subscription.CreatedAt, &subscription.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return subscription, nil
}

func (r *subscriptionRepo) LatestActiveForPhone(ctx context.Context, phoneNumber string, at time.Time) (*models.ActiveSubscription, error) {
	subscription := &models.ActiveSubscription{}
	query := `
		SELECT s.id, s.phone_number, s.plan_id, s.start_time, s.end_time, s.created_at, s.updated_at, p.name, p.validity
		FROM user_subscriptions s
		JOIN subscription_plans p ON p.id = s.plan_id
		WHERE s.phone_number = $1 AND s.end_time > $2
		ORDER BY s.end_time DESC
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, phoneNumber, at).Scan(&subscription.ID, &subscription.PhoneNumber, &subscription.PlanID, &subscription.StartTime, &subscription.EndTime, &subscription.CreatedAt, &subscription.UpdatedAt, &subscription.PlanName, &subscription.PlanValidity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return subscription, nil
}

func (r *subscriptionRepo) Create(ctx context.Context, subscription *models.Subscription) error {
	query := `
		INSERT INTO user_subscriptions (id, phone_number, plan_id, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, subscription.ID, subscription.PhoneNumber, subscription.PlanID, subscription.StartTime, subscription.EndTime)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepo) UpdateEndTime(ctx context.Context, id uuid.UUID, endTime time.Time) error {
	query := `
		UPDATE user_subscriptions
		SET end_time = $1, updated_at = NOW()
		WHERE id = $2
	`
	tag, err := r.db.Exec(ctx, query, endTime, id)
	if err != nil {
		return fmt.Errorf("extend subscription %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
