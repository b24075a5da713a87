package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"hotspotpay/internal/caching"
	"hotspotpay/internal/common"
	"hotspotpay/internal/config"
	"hotspotpay/internal/models"
	"hotspotpay/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const planCacheTTL = 5 * time.Minute

type PlanService interface {
	List(ctx context.Context) ([]*models.Plan, error)
	Create(ctx context.Context, req *CreatePlanRequest) (*models.Plan, error)
	Seed(ctx context.Context, seed *config.PlanSeedFile) (int, error)
}

type CreatePlanRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Validity string `json:"validity" validate:"required,max=20"`
	Amount   string `json:"amount" validate:"required"`
}

type planService struct {
	planRepo repositories.PlanRepository
	cache    caching.CacheService
}

// NewPlanService creates the catalog service. cache may be nil.
func NewPlanService(planRepo repositories.PlanRepository, cache caching.CacheService) PlanService {
	return &planService{planRepo: planRepo, cache: cache}
}

func (s *planService) List(ctx context.Context) ([]*models.Plan, error) {
	if s.cache != nil {
		plans, err := s.cache.GetPlans(ctx)
		if err != nil {
			log.Printf("WARN: plan cache read failed: %v", err)
		} else if plans != nil {
			return plans, nil
		}
	}

	plans, err := s.planRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	if plans == nil {
		plans = []*models.Plan{}
	}

	if s.cache != nil {
		if err := s.cache.SetPlans(ctx, plans, planCacheTTL); err != nil {
			log.Printf("WARN: plan cache write failed: %v", err)
		}
	}
	return plans, nil
}

func (s *planService) Create(ctx context.Context, req *CreatePlanRequest) (*models.Plan, error) {
	plan, err := buildPlan(req.Name, req.Validity, req.Amount)
	if err != nil {
		return nil, err
	}

	if err := s.planRepo.Create(ctx, plan); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, common.NewValidationError("name", "a plan with this name already exists")
		}
		return nil, err
	}
	s.invalidate(ctx)
	return plan, nil
}

// Seed inserts the plans from a seed file that are not in the catalog yet.
func (s *planService) Seed(ctx context.Context, seed *config.PlanSeedFile) (int, error) {
	inserted := 0
	for _, p := range seed.Plans {
		plan, err := buildPlan(p.Name, p.Validity, p.Amount)
		if err != nil {
			return inserted, fmt.Errorf("seed plan %q: %w", p.Name, err)
		}
		created, err := s.planRepo.CreateIfMissing(ctx, plan)
		if err != nil {
			return inserted, err
		}
		if created {
			inserted++
		}
	}
	if inserted > 0 {
		s.invalidate(ctx)
	}
	return inserted, nil
}

func (s *planService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePlans(ctx); err != nil {
		log.Printf("WARN: plan cache invalidation failed: %v", err)
	}
}

// maxPlanAmount is the largest value subscription_plans.amount NUMERIC(10,2) holds.
var maxPlanAmount = decimal.RequireFromString("99999999.99")

// buildPlan rejects validities the duration parser would silently default.
func buildPlan(name, validity, amount string) (*models.Plan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.NewValidationError("name", "name is required")
	}
	validity = strings.TrimSpace(validity)
	if _, defaulted := common.ParseValidity(validity); defaulted {
		return nil, common.NewValidationError("validity", "validity must look like \"2 Hours\", \"1 Day\" or \"3 Weeks\"")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || !price.IsPositive() {
		return nil, common.NewValidationError("amount", "amount must be a positive number")
	}
	if price.Exponent() < -2 {
		return nil, common.NewValidationError("amount", "amount may have at most two decimal places")
	}
	if price.GreaterThan(maxPlanAmount) {
		return nil, common.NewValidationError("amount", "amount must be at most "+maxPlanAmount.StringFixed(2))
	}

	return &models.Plan{
		ID:       uuid.New(),
		Name:     name,
		Validity: validity,
		Amount:   price,
	}, nil
}
