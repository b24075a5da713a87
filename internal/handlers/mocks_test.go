package handlers

import (
	"context"

	"hotspotpay/internal/config"
	"hotspotpay/internal/jobs/background"
	"hotspotpay/internal/models"
	"hotspotpay/internal/services"

	"github.com/stretchr/testify/mock"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Initiate(ctx context.Context, phoneNumber, planID string) (*models.Transaction, error) {
	args := m.Called(ctx, phoneNumber, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockPaymentService) HandleCallback(ctx context.Context, envelope *models.STKCallbackEnvelope, raw []byte) (*models.CallbackAck, error) {
	args := m.Called(ctx, envelope, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CallbackAck), args.Error(1)
}

func (m *MockPaymentService) GetTransaction(ctx context.Context, checkoutRequestID string) (*models.Transaction, error) {
	args := m.Called(ctx, checkoutRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockPaymentService) GetTransactionDetails(ctx context.Context, checkoutRequestID string) (*services.TransactionDetails, error) {
	args := m.Called(ctx, checkoutRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TransactionDetails), args.Error(1)
}

type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) CheckStatus(ctx context.Context, phoneNumber string) (*services.SubscriptionStatus, error) {
	args := m.Called(ctx, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubscriptionStatus), args.Error(1)
}

type MockPlanService struct {
	mock.Mock
}

func (m *MockPlanService) List(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

func (m *MockPlanService) Create(ctx context.Context, req *services.CreatePlanRequest) (*models.Plan, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanService) Seed(ctx context.Context, seed *config.PlanSeedFile) (int, error) {
	args := m.Called(ctx, seed)
	return args.Int(0), args.Error(1)
}

type MockReaperService struct {
	mock.Mock
}

func (m *MockReaperService) ExpireStale(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockJobStatusProvider struct {
	mock.Mock
}

func (m *MockJobStatusProvider) GetJobStatus() []background.JobStatus {
	args := m.Called()
	return args.Get(0).([]background.JobStatus)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
