package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"hotspotpay/internal/common"
	"hotspotpay/internal/config"
	"hotspotpay/internal/models"
	"hotspotpay/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type PlanServiceTestSuite struct {
	suite.Suite
	repo    *MockPlanRepository
	cache   *MockCacheService
	service PlanService
	ctx     context.Context
}

func (suite *PlanServiceTestSuite) SetupTest() {
	suite.repo = &MockPlanRepository{}
	suite.cache = &MockCacheService{}
	suite.repo.Test(suite.T())
	suite.cache.Test(suite.T())
	suite.service = NewPlanService(suite.repo, suite.cache)
	suite.ctx = context.Background()
}

func (suite *PlanServiceTestSuite) TearDownTest() {
	suite.repo.AssertExpectations(suite.T())
	suite.cache.AssertExpectations(suite.T())
}

func TestPlanServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PlanServiceTestSuite))
}

func (suite *PlanServiceTestSuite) TestList_CacheHit() {
	plans := []*models.Plan{{ID: uuid.New(), Name: "Hourly", Validity: "1 Hour", Amount: decimal.NewFromInt(10)}}
	suite.cache.On("GetPlans", suite.ctx).Return(plans, nil)

	got, err := suite.service.List(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), plans, got)
	suite.repo.AssertNotCalled(suite.T(), "List", mock.Anything)
}

func (suite *PlanServiceTestSuite) TestList_CacheMissFillsCache() {
	plans := []*models.Plan{{ID: uuid.New(), Name: "Daily", Validity: "1 Day", Amount: decimal.NewFromInt(50)}}
	suite.cache.On("GetPlans", suite.ctx).Return(nil, nil)
	suite.repo.On("List", suite.ctx).Return(plans, nil)
	suite.cache.On("SetPlans", suite.ctx, plans, planCacheTTL).Return(nil)

	got, err := suite.service.List(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), plans, got)
}

func (suite *PlanServiceTestSuite) TestList_CacheErrorFallsThrough() {
	suite.cache.On("GetPlans", suite.ctx).Return(nil, errors.New("redis down"))
	suite.repo.On("List", suite.ctx).Return(nil, nil)
	suite.cache.On("SetPlans", suite.ctx, []*models.Plan{}, planCacheTTL).Return(errors.New("redis down"))

	got, err := suite.service.List(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), got)
}

func (suite *PlanServiceTestSuite) TestCreate_Success() {
	suite.repo.On("Create", suite.ctx, mock.MatchedBy(func(p *models.Plan) bool {
		return p.Name == "Weekly" && p.Validity == "1 Week" && p.Amount.Equal(decimal.RequireFromString("250.50"))
	})).Return(nil)
	suite.cache.On("InvalidatePlans", suite.ctx).Return(nil)

	plan, err := suite.service.Create(suite.ctx, &CreatePlanRequest{Name: " Weekly ", Validity: "1 Week", Amount: "250.50"})
	require.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), uuid.Nil, plan.ID)
}

func (suite *PlanServiceTestSuite) TestCreate_DuplicateName() {
	suite.repo.On("Create", suite.ctx, mock.Anything).Return(fmt.Errorf("insert plan: %w", repositories.ErrDuplicate))

	_, err := suite.service.Create(suite.ctx, &CreatePlanRequest{Name: "Daily", Validity: "1 Day", Amount: "50"})
	assert.True(suite.T(), common.IsValidation(err))
}

func (suite *PlanServiceTestSuite) TestCreate_RejectsBadInput() {
	cases := []CreatePlanRequest{
		{Name: "", Validity: "1 Hour", Amount: "10"},
		{Name: "Monthly", Validity: "1 Month", Amount: "10"},
		{Name: "Hourly", Validity: "1 hour", Amount: "10"},
		{Name: "Hourly", Validity: "1 Hour", Amount: "0"},
		{Name: "Hourly", Validity: "1 Hour", Amount: "ten"},
		{Name: "Hourly", Validity: "1 Hour", Amount: "10.001"},
		{Name: "Hourly", Validity: "1 Hour", Amount: "100000000"},
	}
	for _, req := range cases {
		req := req
		_, err := suite.service.Create(suite.ctx, &req)
		assert.True(suite.T(), common.IsValidation(err), "expected validation error for %+v", req)
	}
}

func (suite *PlanServiceTestSuite) TestBuildPlan_AcceptsLargestStorableAmount() {
	plan, err := buildPlan("Yearly", "52 Weeks", "99999999.99")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "99999999.99", plan.Amount.StringFixed(2))
}

func (suite *PlanServiceTestSuite) TestSeed_CountsInsertedOnly() {
	seed := &config.PlanSeedFile{Plans: []config.PlanSeed{
		{Name: "Hourly", Validity: "1 Hour", Amount: "10"},
		{Name: "Daily", Validity: "1 Day", Amount: "50"},
	}}
	suite.repo.On("CreateIfMissing", suite.ctx, mock.MatchedBy(func(p *models.Plan) bool { return p.Name == "Hourly" })).Return(false, nil)
	suite.repo.On("CreateIfMissing", suite.ctx, mock.MatchedBy(func(p *models.Plan) bool { return p.Name == "Daily" })).Return(true, nil)
	suite.cache.On("InvalidatePlans", suite.ctx).Return(nil)

	n, err := suite.service.Seed(suite.ctx, seed)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, n)
}

func (suite *PlanServiceTestSuite) TestSeed_InvalidEntry() {
	seed := &config.PlanSeedFile{Plans: []config.PlanSeed{{Name: "Bad", Validity: "soon", Amount: "10"}}}

	_, err := suite.service.Seed(suite.ctx, seed)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "Bad")
}
