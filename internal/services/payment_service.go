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
	"hotspotpay/internal/metrics"
	"hotspotpay/internal/models"
	"hotspotpay/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	terminalCacheTTL = 10 * time.Minute

	ackSuccess   = "Callback received successfully"
	ackCancelled = "User cancelled the transaction"
	ackFailed    = "Callback received, failure recorded"
	ackDuplicate = "Callback already processed"
	ackReceived  = "Callback received"
)

// PaymentService drives STK push transactions from initiation to a terminal status.
type PaymentService interface {
	Initiate(ctx context.Context, phoneNumber, planID string) (*models.Transaction, error)
	// HandleCallback applies a gateway callback. Only ValidationError and
	// NotFoundError are returned; every other outcome is acknowledged.
	HandleCallback(ctx context.Context, envelope *models.STKCallbackEnvelope, raw []byte) (*models.CallbackAck, error)
	GetTransaction(ctx context.Context, checkoutRequestID string) (*models.Transaction, error)
	GetTransactionDetails(ctx context.Context, checkoutRequestID string) (*TransactionDetails, error)
}

// TransactionDetails carries purchase details only once the payment succeeded.
type TransactionDetails struct {
	Status    string           `json:"status"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Plan      string           `json:"plan,omitempty"`
	Timestamp *time.Time       `json:"timestamp,omitempty"`
}

type PaymentOptions struct {
	AccountReference string
	InitiateLimit    int
	InitiateWindow   time.Duration
}

type paymentService struct {
	db           repositories.Database
	transactions repositories.TransactionRepository
	plans        repositories.PlanRepository
	gateway      GatewayClient
	cache        caching.CacheService
	archive      CallbackArchive
	reconciler   *SubscriptionReconciler
	opts         PaymentOptions
	now          func() time.Time
}

// NewPaymentService wires the payment flow. cache and archive may be nil.
func NewPaymentService(db repositories.Database, gateway GatewayClient, cache caching.CacheService, archive CallbackArchive, opts PaymentOptions) PaymentService {
	return &paymentService{
		db:           db,
		transactions: repositories.NewTransactionRepo(db),
		plans:        repositories.NewPlanRepo(db),
		gateway:      gateway,
		cache:        cache,
		archive:      archive,
		reconciler:   NewSubscriptionReconciler(time.Now),
		opts:         opts,
		now:          time.Now,
	}
}

func (s *paymentService) Initiate(ctx context.Context, phoneNumber, planID string) (*models.Transaction, error) {
	if strings.TrimSpace(phoneNumber) == "" || strings.TrimSpace(planID) == "" {
		return nil, common.NewValidationError("", "phone_number and plan_id are required")
	}

	phone, err := common.NormalizePhone(phoneNumber)
	if err != nil {
		return nil, err
	}
	pid, err := common.ValidateUUID(planID, "plan_id")
	if err != nil {
		return nil, err
	}

	if err := s.checkRateLimit(ctx, phone); err != nil {
		return nil, err
	}

	plan, err := s.plans.GetByID(ctx, pid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewValidationError("plan_id", "invalid plan selected")
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	resp, err := s.gateway.InitiateSTKPush(ctx, &STKPushRequest{
		Amount:           plan.Amount,
		PhoneNumber:      phone,
		AccountReference: s.opts.AccountReference,
		Description:      "Payment for " + plan.Name,
	})
	if err != nil {
		metrics.STKPushesInitiated.WithLabelValues("rejected").Inc()
		log.Printf("WARN: STK push for %s on plan %s failed: %v", phone, plan.ID, err)
		if !common.IsUpstream(err) {
			err = common.NewUpstreamError("stk push", err)
		}
		return nil, err
	}

	checkoutID := resp.CheckoutRequestID
	txn := &models.Transaction{
		ID:                uuid.New(),
		PhoneNumber:       phone,
		PlanID:            plan.ID,
		Amount:            plan.Amount,
		CheckoutRequestID: &checkoutID,
		MerchantRequestID: resp.MerchantRequestID,
		Status:            models.Pending(),
		CreatedAt:         s.now(),
	}
	if err := s.transactions.Create(ctx, txn); err != nil {
		log.Printf("ERROR: gateway accepted push %s but the ledger insert failed: %v", checkoutID, err)
		return nil, err
	}

	metrics.STKPushesInitiated.WithLabelValues("accepted").Inc()
	return txn, nil
}

func (s *paymentService) checkRateLimit(ctx context.Context, phone string) error {
	if s.cache == nil || s.opts.InitiateLimit <= 0 {
		return nil
	}
	limited, err := s.cache.IsRateLimited(ctx, "initiate:"+phone, s.opts.InitiateLimit, s.opts.InitiateWindow)
	if err != nil {
		// Redis being down must not block payments.
		log.Printf("WARN: rate limit check failed for %s: %v", phone, err)
		return nil
	}
	if limited {
		return &common.RateLimitError{Key: phone}
	}
	return nil
}

func (s *paymentService) HandleCallback(ctx context.Context, envelope *models.STKCallbackEnvelope, raw []byte) (*models.CallbackAck, error) {
	cb := &envelope.Body.STKCallback
	if strings.TrimSpace(cb.CheckoutRequestID) == "" || cb.ResultCode == nil {
		metrics.CallbackFailuresTotal.WithLabelValues("malformed").Inc()
		return nil, common.NewValidationError("", "Missing required callback parameters")
	}

	s.archiveCallback(ctx, cb.CheckoutRequestID, raw)

	status := models.StatusFromResult(*cb.ResultCode, cb.ResultDesc)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return s.processingFailure(cb.CheckoutRequestID, "begin", err), nil
	}

	txn, applied, err := repositories.NewTransactionRepo(tx).Resolve(ctx, cb.CheckoutRequestID, status, cb.Receipt())
	if err != nil {
		s.rollback(ctx, tx)
		if errors.Is(err, pgx.ErrNoRows) {
			metrics.CallbackFailuresTotal.WithLabelValues("unknown").Inc()
			return nil, common.NewNotFoundError("transaction", cb.CheckoutRequestID)
		}
		return s.processingFailure(cb.CheckoutRequestID, "resolve", err), nil
	}

	if !applied {
		s.rollback(ctx, tx)
		return s.alreadyResolved(txn, status), nil
	}

	if status.Kind == models.StatusSuccess {
		plan, err := repositories.NewPlanRepo(tx).GetByID(ctx, txn.PlanID)
		if err != nil {
			s.rollback(ctx, tx)
			return s.processingFailure(cb.CheckoutRequestID, "plan", err), nil
		}
		if _, err := s.reconciler.Reconcile(ctx, repositories.NewSubscriptionRepo(tx), txn, plan); err != nil {
			s.rollback(ctx, tx)
			return s.processingFailure(cb.CheckoutRequestID, "reconcile", err), nil
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return s.processingFailure(cb.CheckoutRequestID, "commit", err), nil
	}

	metrics.CallbacksTotal.WithLabelValues(txn.Status.APIValue()).Inc()
	s.cacheTerminal(ctx, txn)

	switch txn.Status.Kind {
	case models.StatusSuccess:
		return &models.CallbackAck{ResultCode: 0, ResultDesc: ackSuccess}, nil
	case models.StatusCancelled:
		return &models.CallbackAck{
			ResultCode:        0,
			ResultDesc:        ackCancelled,
			CheckoutRequestID: cb.CheckoutRequestID,
			SavedStatus:       txn.Status.String(),
		}, nil
	default:
		return &models.CallbackAck{ResultCode: 0, ResultDesc: ackFailed}, nil
	}
}

// alreadyResolved acknowledges a callback for a transaction that is already terminal.
func (s *paymentService) alreadyResolved(txn *models.Transaction, incoming models.TransactionStatus) *models.CallbackAck {
	checkoutID := *txn.CheckoutRequestID
	if txn.Status.Kind == models.StatusTimedOut {
		metrics.LateCallbacksTotal.Inc()
		log.Printf("WARN: late callback for %s reporting %s after the transaction timed out; not applied", checkoutID, incoming)
	} else {
		log.Printf("Duplicate callback for %s reporting %s; already %s", checkoutID, incoming, txn.Status)
	}
	return &models.CallbackAck{
		ResultCode:        0,
		ResultDesc:        ackDuplicate,
		CheckoutRequestID: checkoutID,
		SavedStatus:       txn.Status.String(),
	}
}

func (s *paymentService) processingFailure(checkoutID, stage string, err error) *models.CallbackAck {
	metrics.CallbackFailuresTotal.WithLabelValues(stage).Inc()
	log.Printf("ERROR: failed to apply callback for %s at %s: %v", checkoutID, stage, err)
	return &models.CallbackAck{ResultCode: 0, ResultDesc: ackReceived}
}

func (s *paymentService) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		log.Printf("WARN: rollback failed: %v", err)
	}
}

func (s *paymentService) archiveCallback(ctx context.Context, checkoutID string, raw []byte) {
	if s.archive == nil || len(raw) == 0 {
		return
	}
	if _, err := s.archive.Store(ctx, checkoutID, raw); err != nil {
		log.Printf("WARN: %v", err)
	}
}

func (s *paymentService) cacheTerminal(ctx context.Context, txn *models.Transaction) {
	if s.cache == nil || !txn.Status.IsTerminal() {
		return
	}
	if err := s.cache.SetTransaction(ctx, txn, terminalCacheTTL); err != nil {
		log.Printf("WARN: transaction cache write failed: %v", err)
	}
}

func (s *paymentService) GetTransaction(ctx context.Context, checkoutRequestID string) (*models.Transaction, error) {
	checkoutRequestID = strings.TrimSpace(checkoutRequestID)
	if checkoutRequestID == "" {
		return nil, common.NewValidationError("checkout_request_id", "checkout_request_id is required")
	}

	if s.cache != nil {
		cached, err := s.cache.GetTransaction(ctx, checkoutRequestID)
		if err != nil {
			log.Printf("WARN: transaction cache read failed: %v", err)
		} else if cached != nil && cached.Status.IsTerminal() {
			return cached, nil
		}
	}

	txn, err := s.transactions.GetByCheckoutRequestID(ctx, checkoutRequestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("transaction", checkoutRequestID)
		}
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}

	s.cacheTerminal(ctx, txn)
	return txn, nil
}

func (s *paymentService) GetTransactionDetails(ctx context.Context, checkoutRequestID string) (*TransactionDetails, error) {
	txn, err := s.GetTransaction(ctx, checkoutRequestID)
	if err != nil {
		return nil, err
	}

	details := &TransactionDetails{Status: txn.Status.APIValue()}
	if txn.Status.Kind != models.StatusSuccess {
		return details, nil
	}

	plan, err := s.plans.GetByID(ctx, txn.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan for transaction: %w", err)
	}

	amount := txn.Amount
	createdAt := txn.CreatedAt
	details.Amount = &amount
	details.Plan = plan.Name
	details.Timestamp = &createdAt
	return details, nil
}
