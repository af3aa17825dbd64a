package charge

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brpay/charge-service/internal/domain"
	"github.com/brpay/charge-service/internal/domain/ports"
	"github.com/brpay/charge-service/pkg/resilience"
)

// MockChargeRepository is a mock implementation of ports.ChargeRepository
type MockChargeRepository struct {
	mock.Mock
}

func (m *MockChargeRepository) Create(ctx context.Context, tx ports.DBTX, charge domain.Charge) error {
	args := m.Called(ctx, tx, charge)
	return args.Error(0)
}

func (m *MockChargeRepository) FindByID(ctx context.Context, db ports.DBTX, id string) (domain.Charge, error) {
	args := m.Called(ctx, db, id)
	return args.Get(0).(domain.Charge), args.Error(1)
}

func (m *MockChargeRepository) FindByIdempotencyKey(ctx context.Context, db ports.DBTX, merchantID, key string) (domain.Charge, error) {
	args := m.Called(ctx, db, merchantID, key)
	return args.Get(0).(domain.Charge), args.Error(1)
}

func (m *MockChargeRepository) Update(ctx context.Context, tx ports.DBTX, charge domain.Charge) error {
	args := m.Called(ctx, tx, charge)
	return args.Error(0)
}

func (m *MockChargeRepository) ListByMerchantAndDateRange(ctx context.Context, db ports.DBTX, merchantID string, start, end time.Time) ([]domain.Charge, error) {
	args := m.Called(ctx, db, merchantID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Charge), args.Error(1)
}

// MockPaymentProvider is a mock implementation of ports.PaymentProvider
type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) IssuePixCharge(ctx context.Context, req ports.IssueChargeRequest) (*ports.PixChargeData, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.PixChargeData), args.Error(1)
}

func (m *MockPaymentProvider) IssueBoletoCharge(ctx context.Context, req ports.IssueChargeRequest) (*ports.BoletoChargeData, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.BoletoChargeData), args.Error(1)
}

func (m *MockPaymentProvider) GetBalance(ctx context.Context, merchantID string) (int64, error) {
	args := m.Called(ctx, merchantID)
	return args.Get(0).(int64), args.Error(1)
}

// MockMessaging is a mock implementation of ports.MessagingPort
type MockMessaging struct {
	mock.Mock
}

func (m *MockMessaging) Publish(ctx context.Context, eventName string, payload map[string]interface{}) error {
	args := m.Called(ctx, eventName, payload)
	return args.Error(0)
}

// MockLogger is a no-op logger for tests
type MockLogger struct{}

func (m *MockLogger) Info(msg string, fields ...ports.Field)  {}
func (m *MockLogger) Error(msg string, fields ...ports.Field) {}
func (m *MockLogger) Warn(msg string, fields ...ports.Field)  {}
func (m *MockLogger) Debug(msg string, fields ...ports.Field) {}

func newTestService(repo *MockChargeRepository, provider *MockPaymentProvider, messaging *MockMessaging) *Service {
	return NewService(repo, provider, messaging, &MockLogger{}, resilience.TestTimeoutConfig())
}

func validCreateRequest() CreateChargeRequest {
	return CreateChargeRequest{
		MerchantID:     "merchant-1",
		IdempotencyKey: "abc123",
		AmountCents:    5500,
		Currency:       "BRL",
		Description:    "order #42",
	}
}

func TestCreateCharge_Success(t *testing.T) {
	repo := new(MockChargeRepository)
	messaging := new(MockMessaging)
	svc := newTestService(repo, new(MockPaymentProvider), messaging)

	repo.On("FindByIdempotencyKey", mock.Anything, nil, "merchant-1", "abc123").
		Return(domain.Charge{}, domain.ErrChargeNotFound).Once()
	repo.On("Create", mock.Anything, nil, mock.MatchedBy(func(c domain.Charge) bool {
		return c.MerchantID == "merchant-1" && c.AmountCents == 5500 && c.Status == domain.ChargeStatusPending
	})).Return(nil).Once()
	messaging.On("Publish", mock.Anything, ports.EventChargeCreated, mock.Anything).Return(nil).Once()

	charge, err := svc.CreateCharge(context.Background(), nil, validCreateRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, charge.ID)
	assert.Equal(t, domain.ChargeStatusPending, charge.Status)
	repo.AssertExpectations(t)
	messaging.AssertExpectations(t)
}

func TestCreateCharge_IdempotentReplay(t *testing.T) {
	repo := new(MockChargeRepository)
	messaging := new(MockMessaging)
	svc := newTestService(repo, new(MockPaymentProvider), messaging)

	existing := domain.Charge{ID: "charge-1", MerchantID: "merchant-1", IdempotencyKey: "abc123", AmountCents: 5500, Status: domain.ChargeStatusPending}
	repo.On("FindByIdempotencyKey", mock.Anything, nil, "merchant-1", "abc123").
		Return(existing, nil).Once()

	charge, err := svc.CreateCharge(context.Background(), nil, validCreateRequest())

	require.NoError(t, err)
	assert.Equal(t, "charge-1", charge.ID)
	// no insert, no event
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	messaging.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateCharge_ConflictRaceReturnsWinner(t *testing.T) {
	repo := new(MockChargeRepository)
	messaging := new(MockMessaging)
	svc := newTestService(repo, new(MockPaymentProvider), messaging)

	winner := domain.Charge{ID: "winner", MerchantID: "merchant-1", IdempotencyKey: "abc123", AmountCents: 5500}
	repo.On("FindByIdempotencyKey", mock.Anything, nil, "merchant-1", "abc123").
		Return(domain.Charge{}, domain.ErrChargeNotFound).Once()
	repo.On("Create", mock.Anything, nil, mock.Anything).
		Return(domain.ErrIdempotencyConflict).Once()
	repo.On("FindByIdempotencyKey", mock.Anything, nil, "merchant-1", "abc123").
		Return(winner, nil).Once()

	charge, err := svc.CreateCharge(context.Background(), nil, validCreateRequest())

	require.NoError(t, err)
	assert.Equal(t, "winner", charge.ID)
	messaging.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

// stubTx satisfies ports.DBTX; repository calls are mocked so it is never executed
type stubTx struct{}

func (stubTx) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (stubTx) Query(context.Context, string, ...interface{}) (pgx.Rows, error) { return nil, nil }
func (stubTx) QueryRow(context.Context, string, ...interface{}) pgx.Row       { return nil }

func TestCreateCharge_ConflictInsideTransactionIsNotRefetched(t *testing.T) {
	repo := new(MockChargeRepository)
	messaging := new(MockMessaging)
	svc := newTestService(repo, new(MockPaymentProvider), messaging)

	// a failed insert aborts the enclosing transaction, so the winner cannot
	// be refetched on it; the conflict must surface to the caller
	tx := stubTx{}
	repo.On("FindByIdempotencyKey", mock.Anything, tx, "merchant-1", "abc123").
		Return(domain.Charge{}, domain.ErrChargeNotFound).Once()
	repo.On("Create", mock.Anything, tx, mock.Anything).
		Return(domain.ErrIdempotencyConflict).Once()

	_, err := svc.CreateCharge(context.Background(), tx, validCreateRequest())

	require.Error(t, err)
	assert.True(t, domain.IsConflictError(err))
	repo.AssertNumberOfCalls(t, "FindByIdempotencyKey", 1)
	messaging.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateCharge_ValidationFailure(t *testing.T) {
	repo := new(MockChargeRepository)
	svc := newTestService(repo, new(MockPaymentProvider), new(MockMessaging))

	repo.On("FindByIdempotencyKey", mock.Anything, nil, "merchant-1", "abc123").
		Return(domain.Charge{}, domain.ErrChargeNotFound).Once()

	req := validCreateRequest()
	req.AmountCents = 0
	_, err := svc.CreateCharge(context.Background(), nil, req)

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeValidationAmountInvalid, domain.GetErrorCode(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateCharge_PublishFailureDoesNotFailCreation(t *testing.T) {
	repo := new(MockChargeRepository)
	messaging := new(MockMessaging)
	svc := newTestService(repo, new(MockPaymentProvider), messaging)

	repo.On("FindByIdempotencyKey", mock.Anything, nil, "merchant-1", "abc123").
		Return(domain.Charge{}, domain.ErrChargeNotFound).Once()
	repo.On("Create", mock.Anything, nil, mock.Anything).Return(nil).Once()
	messaging.On("Publish", mock.Anything, ports.EventChargeCreated, mock.Anything).
		Return(domain.ErrInternalError).Once()

	_, err := svc.CreateCharge(context.Background(), nil, validCreateRequest())

	require.NoError(t, err)
}

func TestIssuePayment_Pix(t *testing.T) {
	repo := new(MockChargeRepository)
	provider := new(MockPaymentProvider)
	messaging := new(MockMessaging)
	svc := newTestService(repo, provider, messaging)

	pending := domain.Charge{ID: "charge-1", MerchantID: "merchant-1", AmountCents: 5500, Status: domain.ChargeStatusPending}
	repo.On("FindByID", mock.Anything, nil, "charge-1").Return(pending, nil).Once()
	provider.On("IssuePixCharge", mock.Anything, mock.MatchedBy(func(r ports.IssueChargeRequest) bool {
		return r.ChargeID == "charge-1" && r.AmountCents == 5500
	})).Return(&ports.PixChargeData{QRCode: "qr-payload", CopyPaste: "copy-paste-payload"}, nil).Once()
	repo.On("Update", mock.Anything, nil, mock.MatchedBy(func(c domain.Charge) bool {
		return c.Method == domain.ChargeMethodPix && c.Pix != nil && c.Boleto == nil
	})).Return(nil).Once()
	messaging.On("Publish", mock.Anything, ports.EventChargePaymentIssued, mock.Anything).Return(nil).Once()

	charge, err := svc.IssuePayment(context.Background(), "charge-1", domain.ChargeMethodPix)

	require.NoError(t, err)
	require.NotNil(t, charge.Pix)
	assert.Equal(t, "qr-payload", charge.Pix.QRCode)
	assert.Nil(t, charge.Boleto)
	repo.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestIssuePayment_Boleto(t *testing.T) {
	repo := new(MockChargeRepository)
	provider := new(MockPaymentProvider)
	messaging := new(MockMessaging)
	svc := newTestService(repo, provider, messaging)

	pending := domain.Charge{ID: "charge-1", MerchantID: "merchant-1", AmountCents: 5500, Status: domain.ChargeStatusPending}
	repo.On("FindByID", mock.Anything, nil, "charge-1").Return(pending, nil).Once()
	provider.On("IssueBoletoCharge", mock.Anything, mock.Anything).
		Return(&ports.BoletoChargeData{BoletoURL: "https://boletos.example/123"}, nil).Once()
	repo.On("Update", mock.Anything, nil, mock.MatchedBy(func(c domain.Charge) bool {
		return c.Method == domain.ChargeMethodBoleto && c.Boleto != nil && c.Pix == nil
	})).Return(nil).Once()
	messaging.On("Publish", mock.Anything, ports.EventChargePaymentIssued, mock.Anything).Return(nil).Once()

	charge, err := svc.IssuePayment(context.Background(), "charge-1", domain.ChargeMethodBoleto)

	require.NoError(t, err)
	require.NotNil(t, charge.Boleto)
	assert.Equal(t, "https://boletos.example/123", charge.Boleto.BoletoURL)
}

func TestIssuePayment_ReboundMethodClearsOldInstructions(t *testing.T) {
	repo := new(MockChargeRepository)
	provider := new(MockPaymentProvider)
	messaging := new(MockMessaging)
	svc := newTestService(repo, provider, messaging)

	withPix := domain.Charge{
		ID:          "charge-1",
		MerchantID:  "merchant-1",
		AmountCents: 5500,
		Status:      domain.ChargeStatusPending,
		Method:      domain.ChargeMethodPix,
		Pix:         &domain.PixData{QRCode: "old-qr", CopyPaste: "old-cp"},
	}
	repo.On("FindByID", mock.Anything, nil, "charge-1").Return(withPix, nil).Once()
	provider.On("IssueBoletoCharge", mock.Anything, mock.Anything).
		Return(&ports.BoletoChargeData{BoletoURL: "https://boletos.example/123"}, nil).Once()
	repo.On("Update", mock.Anything, nil, mock.Anything).Return(nil).Once()
	messaging.On("Publish", mock.Anything, ports.EventChargePaymentIssued, mock.Anything).Return(nil).Once()

	charge, err := svc.IssuePayment(context.Background(), "charge-1", domain.ChargeMethodBoleto)

	require.NoError(t, err)
	assert.Nil(t, charge.Pix)
	require.NotNil(t, charge.Boleto)
}

func TestIssuePayment_ProviderFailureLeavesChargeUntouched(t *testing.T) {
	repo := new(MockChargeRepository)
	provider := new(MockPaymentProvider)
	svc := newTestService(repo, provider, new(MockMessaging))

	pending := domain.Charge{ID: "charge-1", MerchantID: "merchant-1", AmountCents: 5500, Status: domain.ChargeStatusPending}
	repo.On("FindByID", mock.Anything, nil, "charge-1").Return(pending, nil).Once()
	provider.On("IssuePixCharge", mock.Anything, mock.Anything).
		Return(nil, domain.ErrProviderUnavailable).Once()

	_, err := svc.IssuePayment(context.Background(), "charge-1", domain.ChargeMethodPix)

	require.Error(t, err)
	assert.True(t, domain.IsProviderError(err))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestIssuePayment_TerminalChargeRejected(t *testing.T) {
	repo := new(MockChargeRepository)
	provider := new(MockPaymentProvider)
	svc := newTestService(repo, provider, new(MockMessaging))

	paid := domain.Charge{ID: "charge-1", MerchantID: "merchant-1", AmountCents: 5500, Status: domain.ChargeStatusPaid}
	repo.On("FindByID", mock.Anything, nil, "charge-1").Return(paid, nil).Once()

	_, err := svc.IssuePayment(context.Background(), "charge-1", domain.ChargeMethodPix)

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeChargeImmutable, domain.GetErrorCode(err))
	provider.AssertNotCalled(t, "IssuePixCharge", mock.Anything, mock.Anything)
}

func TestIssuePayment_CardBindsWithoutProviderCall(t *testing.T) {
	repo := new(MockChargeRepository)
	provider := new(MockPaymentProvider)
	messaging := new(MockMessaging)
	svc := newTestService(repo, provider, messaging)

	pending := domain.Charge{ID: "charge-1", MerchantID: "merchant-1", AmountCents: 5500, Status: domain.ChargeStatusPending}
	repo.On("FindByID", mock.Anything, nil, "charge-1").Return(pending, nil).Once()
	repo.On("Update", mock.Anything, nil, mock.MatchedBy(func(c domain.Charge) bool {
		return c.Method == domain.ChargeMethodCard && c.Pix == nil && c.Boleto == nil
	})).Return(nil).Once()
	messaging.On("Publish", mock.Anything, ports.EventChargePaymentIssued, mock.Anything).Return(nil).Once()

	charge, err := svc.IssuePayment(context.Background(), "charge-1", domain.ChargeMethodCard)

	require.NoError(t, err)
	assert.Equal(t, domain.ChargeMethodCard, charge.Method)
	provider.AssertNotCalled(t, "IssuePixCharge", mock.Anything, mock.Anything)
	provider.AssertNotCalled(t, "IssueBoletoCharge", mock.Anything, mock.Anything)
}

func TestChargeTransitions(t *testing.T) {
	tests := []struct {
		name       string
		run        func(svc *Service) (domain.Charge, error)
		wantStatus domain.ChargeStatus
	}{
		{"mark paid", func(svc *Service) (domain.Charge, error) { return svc.MarkPaid(context.Background(), "charge-1") }, domain.ChargeStatusPaid},
		{"mark expired", func(svc *Service) (domain.Charge, error) { return svc.MarkExpired(context.Background(), "charge-1") }, domain.ChargeStatusExpired},
		{"cancel", func(svc *Service) (domain.Charge, error) { return svc.Cancel(context.Background(), "charge-1") }, domain.ChargeStatusCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockChargeRepository)
			svc := newTestService(repo, new(MockPaymentProvider), new(MockMessaging))

			pending := domain.Charge{ID: "charge-1", MerchantID: "merchant-1", AmountCents: 5500, Status: domain.ChargeStatusPending}
			repo.On("FindByID", mock.Anything, nil, "charge-1").Return(pending, nil).Once()
			repo.On("Update", mock.Anything, nil, mock.Anything).Return(nil).Once()

			charge, err := tt.run(svc)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, charge.Status)
		})
	}
}

func TestGetCharge_NotFound(t *testing.T) {
	repo := new(MockChargeRepository)
	svc := newTestService(repo, new(MockPaymentProvider), new(MockMessaging))

	repo.On("FindByID", mock.Anything, nil, "missing").
		Return(domain.Charge{}, domain.ErrChargeNotFound).Once()

	_, err := svc.GetCharge(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, domain.IsNotFoundError(err))
}
