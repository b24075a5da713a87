package handlers

import (
	"log"
	"net/http"

	"hotspotpay/internal/common"
	"hotspotpay/internal/services"

	"github.com/labstack/echo/v4"
)

// PlanHandlers handles the plan catalog
type PlanHandlers struct {
	planService services.PlanService
}

func NewPlanHandlers(planService services.PlanService) *PlanHandlers {
	return &PlanHandlers{planService: planService}
}

// ListPlans handles GET /api/plans
//
//	@Summary	List plans
//	@Tags		plans
//	@Produce	json
//	@Success	200	{array}	models.Plan
//	@Router		/api/plans [get]
func (h *PlanHandlers) ListPlans(c echo.Context) error {
	plans, err := h.planService.List(c.Request().Context())
	if err != nil {
		log.Printf("ERROR: failed to list plans: %v", err)
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"plans": plans,
	})
}

// CreatePlan handles POST /api/admin/plans
//
//	@Summary	Create a plan
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		services.CreatePlanRequest	true	"Plan"
//	@Success	201		{object}	models.Plan
//	@Failure	400		{object}	common.ErrorResponse
//	@Failure	401		{object}	common.ErrorResponse
//	@Router		/api/admin/plans [post]
func (h *PlanHandlers) CreatePlan(c echo.Context) error {
	var req services.CreatePlanRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendError(c, err)
	}

	plan, err := h.planService.Create(c.Request().Context(), &req)
	if err != nil {
		if !common.IsValidation(err) {
			log.Printf("ERROR: failed to create plan: %v", err)
		}
		return common.SendError(c, err)
	}

	if sub, ok := common.GetAdminSubjectFromContext(c.Request().Context()); ok {
		log.Printf("Plan %q created by %s", plan.Name, sub)
	}
	return c.JSON(http.StatusCreated, plan)
}
