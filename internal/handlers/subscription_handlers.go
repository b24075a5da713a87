package handlers

import (
	"net/http"

	"hotspotpay/internal/common"
	"hotspotpay/internal/services"

	"github.com/labstack/echo/v4"
)

// SubscriptionHandlers answers hotspot access checks
type SubscriptionHandlers struct {
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandlers(subscriptionService services.SubscriptionService) *SubscriptionHandlers {
	return &SubscriptionHandlers{subscriptionService: subscriptionService}
}

// CheckSubscription handles GET /api/check-subscription
//
//	@Summary	Check whether a phone has active access
//	@Tags		subscriptions
//	@Produce	json
//	@Param		phone_number	query		string	true	"Phone number"
//	@Success	200				{object}	services.SubscriptionStatus
//	@Failure	400				{object}	common.ErrorResponse
//	@Router		/api/check-subscription [get]
func (h *SubscriptionHandlers) CheckSubscription(c echo.Context) error {
	status, err := h.subscriptionService.CheckStatus(c.Request().Context(), c.QueryParam("phone_number"))
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}
