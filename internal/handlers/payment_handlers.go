package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"hotspotpay/internal/common"
	"hotspotpay/internal/metrics"
	"hotspotpay/internal/models"
	"hotspotpay/internal/services"

	"github.com/labstack/echo/v4"
)

const maxCallbackBody = 1 << 20

// PaymentHandlers handles STK push initiation, gateway callbacks and status polling
type PaymentHandlers struct {
	paymentService services.PaymentService
}

func NewPaymentHandlers(paymentService services.PaymentService) *PaymentHandlers {
	return &PaymentHandlers{paymentService: paymentService}
}

type InitiateSTKRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	PlanID      string `json:"plan_id" validate:"required"`
}

type InitiateSTKResponse struct {
	Message           string `json:"message"`
	CheckoutRequestID string `json:"checkout_request_id"`
	Status            string `json:"status"`
}

type TransactionStatusResponse struct {
	Status string `json:"status"`
	// Reason carries the gateway's ResultDesc for failed pushes.
	Reason string `json:"reason,omitempty"`
}

// InitiateSTK sends an STK push for a plan to the customer's phone.
//
//	@Summary	Initiate an STK push
//	@Tags		payments
//	@Accept		json
//	@Produce	json
//	@Param		request	body		InitiateSTKRequest	true	"Phone number and plan"
//	@Success	202		{object}	InitiateSTKResponse
//	@Failure	400		{object}	common.ErrorResponse
//	@Failure	429		{object}	common.ErrorResponse
//	@Failure	502		{object}	common.ErrorResponse
//	@Router		/api/initiate-stk [post]
func (h *PaymentHandlers) InitiateSTK(c echo.Context) error {
	var req InitiateSTKRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendError(c, err)
	}

	txn, err := h.paymentService.Initiate(c.Request().Context(), req.PhoneNumber, req.PlanID)
	if err != nil {
		if !common.IsValidation(err) {
			log.Printf("ERROR: STK push initiation failed: %v", err)
		}
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusAccepted, InitiateSTKResponse{
		Message:           "STK Push sent to phone",
		CheckoutRequestID: common.SafeString(txn.CheckoutRequestID),
		Status:            "sending stk push",
	})
}

// STKCallback receives the payment result from M-Pesa.
//
//	@Summary	M-Pesa STK callback
//	@Tags		payments
//	@Accept		json
//	@Produce	json
//	@Param		request	body		models.STKCallbackEnvelope	true	"Callback envelope"
//	@Success	200		{object}	models.CallbackAck
//	@Failure	400		{object}	common.ErrorResponse
//	@Failure	404		{object}	common.ErrorResponse
//	@Router		/api/stk-callback [post]
func (h *PaymentHandlers) STKCallback(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxCallbackBody))
	if err != nil {
		return common.SendValidationError(c, "body", "Failed to read request body")
	}

	var envelope models.STKCallbackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		metrics.CallbackFailuresTotal.WithLabelValues("malformed").Inc()
		return common.SendValidationError(c, "body", "Invalid JSON payload")
	}

	ack, err := h.paymentService.HandleCallback(c.Request().Context(), &envelope, raw)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, ack)
}

// CheckSTKStatus reports the current status of a push.
//
//	@Summary	Poll an STK push status
//	@Tags		payments
//	@Produce	json
//	@Param		checkout_request_id	query		string	true	"Checkout request id"
//	@Success	200					{object}	TransactionStatusResponse
//	@Failure	404					{object}	common.ErrorResponse
//	@Router		/api/check-stk-status [get]
func (h *PaymentHandlers) CheckSTKStatus(c echo.Context) error {
	txn, err := h.paymentService.GetTransaction(c.Request().Context(), c.QueryParam("checkout_request_id"))
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, TransactionStatusResponse{
		Status: txn.Status.APIValue(),
		Reason: txn.Status.Reason,
	})
}

// GetTransactionDetails returns the status and, for successful payments, what was bought.
//
//	@Summary	STK transaction details
//	@Tags		payments
//	@Produce	json
//	@Param		checkout_request_id	query		string	true	"Checkout request id"
//	@Success	200					{object}	services.TransactionDetails
//	@Failure	404					{object}	common.ErrorResponse
//	@Router		/api/stk-transaction-details [get]
func (h *PaymentHandlers) GetTransactionDetails(c echo.Context) error {
	details, err := h.paymentService.GetTransactionDetails(c.Request().Context(), c.QueryParam("checkout_request_id"))
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, details)
}
