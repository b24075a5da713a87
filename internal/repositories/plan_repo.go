package repositories

import (
	"context"
	"fmt"

	"hotspotpay/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PlanRepository interface {
	List(ctx context.Context) ([]*models.Plan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	Create(ctx context.Context, plan *models.Plan) error
	// CreateIfMissing inserts plan unless one with the same name exists.
	CreateIfMissing(ctx context.Context, plan *models.Plan) (bool, error)
}

type planRepo struct {
	db DBTX
}

func NewPlanRepo(db DBTX) PlanRepository {
	return &planRepo{db: db}
}

func (r *planRepo) List(ctx context.Context) ([]*models.Plan, error) {
	query := `
		SELECT id, name, validity, amount::text, created_at
		FROM subscription_plans
		ORDER BY amount ASC, name ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (r *planRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	query := `
		SELECT id, name, validity, amount::text, created_at
		FROM subscription_plans
		WHERE id = $1
	`
	return scanPlan(r.db.QueryRow(ctx, query, id))
}

func (r *planRepo) Create(ctx context.Context, plan *models.Plan) error {
	query := `
		INSERT INTO subscription_plans (id, name, validity, amount, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query, plan.ID, plan.Name, plan.Validity, plan.Amount).Scan(&plan.CreatedAt); err != nil {
		return wrapInsertError("plan", err)
	}
	return nil
}

func (r *planRepo) CreateIfMissing(ctx context.Context, plan *models.Plan) (bool, error) {
	query := `
		INSERT INTO subscription_plans (id, name, validity, amount, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (name) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, plan.ID, plan.Name, plan.Validity, plan.Amount)
	if err != nil {
		return false, fmt.Errorf("seed plan %s: %w", plan.Name, err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanPlan(row pgx.Row) (*models.Plan, error) {
	plan := &models.Plan{}
	var amount string
	if err := row.Scan(&plan.ID, &plan.Name, &plan.Validity, &amount, &plan.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if plan.Amount, err = parseAmount(amount); err != nil {
		return nil, err
	}
	return plan, nil
}
