package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brpay/charge-service/internal/domain"
	"github.com/brpay/charge-service/internal/domain/ports"
	settlementsvc "github.com/brpay/charge-service/internal/services/settlement"
)

// MockSettlementRepository is a mock implementation of ports.SettlementRepository
type MockSettlementRepository struct {
	mock.Mock
	mu sync.Mutex
}

func (m *MockSettlementRepository) Create(ctx context.Context, tx ports.DBTX, stl *domain.Settlement) error {
	args := m.Called(ctx, tx, stl)
	return args.Error(0)
}

func (m *MockSettlementRepository) FindByID(ctx context.Context, db ports.DBTX, id string) (*domain.Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) FindByMerchantID(ctx context.Context, db ports.DBTX, merchantID string, status *domain.SettlementStatus) ([]*domain.Settlement, error) {
	args := m.Called(ctx, db, merchantID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) FindDue(ctx context.Context, db ports.DBTX) ([]*domain.Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(ctx, db)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) Update(ctx context.Context, tx ports.DBTX, stl *domain.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(ctx, tx, stl)
	return args.Error(0)
}

// MockMessaging is a mock implementation of ports.MessagingPort
type MockMessaging struct {
	mock.Mock
	mu sync.Mutex
}

func (m *MockMessaging) Publish(ctx context.Context, eventName string, payload map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(ctx, eventName, payload)
	return args.Error(0)
}

// MockLogger is a no-op logger for tests
type MockLogger struct{}

func (m *MockLogger) Info(msg string, fields ...ports.Field)  {}
func (m *MockLogger) Error(msg string, fields ...ports.Field) {}
func (m *MockLogger) Warn(msg string, fields ...ports.Field)  {}
func (m *MockLogger) Debug(msg string, fields ...ports.Field) {}

func TestSettlementWorker_PicksUpDueSettlements(t *testing.T) {
	repo := new(MockSettlementRepository)
	messaging := new(MockMessaging)
	svc := settlementsvc.NewService(repo, messaging, &MockLogger{})

	due, err := domain.NewSettlement("merchant-1", 250000, "BRL")
	require.NoError(t, err)

	processed := make(chan struct{}, 1)
	repo.On("FindDue", mock.Anything, nil).Return([]*domain.Settlement{due}, nil)
	repo.On("FindByID", mock.Anything, nil, due.ID).Return(due, nil)
	repo.On("Update", mock.Anything, nil, mock.MatchedBy(func(s *domain.Settlement) bool {
		return s.Status == domain.SettlementStatusProcessing
	})).Run(func(mock.Arguments) {
		select {
		case processed <- struct{}{}:
		default:
		}
	}).Return(nil)
	messaging.On("Publish", mock.Anything, ports.EventSettlementProcessing, mock.Anything).Return(nil)

	worker := NewSettlementWorker(svc, &MockLogger{}, 10*time.Millisecond, 10)
	worker.Start(context.Background())
	defer worker.Stop()

	select {
	case <-processed:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the due settlement")
	}
}

func TestSettlementWorker_ListErrorDoesNotStopLoop(t *testing.T) {
	repo := new(MockSettlementRepository)
	messaging := new(MockMessaging)
	svc := settlementsvc.NewService(repo, messaging, &MockLogger{})

	calls := make(chan struct{}, 4)
	repo.On("FindDue", mock.Anything, nil).Run(func(mock.Arguments) {
		select {
		case calls <- struct{}{}:
		default:
		}
	}).Return(nil, domain.ErrDatabaseError)

	worker := NewSettlementWorker(svc, &MockLogger{}, 10*time.Millisecond, 10)
	worker.Start(context.Background())
	defer worker.Stop()

	// the loop keeps polling after a failed tick
	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("worker stopped polling after an error")
		}
	}
}

func TestSettlementWorker_StopIsIdempotentAndReturns(t *testing.T) {
	repo := new(MockSettlementRepository)
	svc := settlementsvc.NewService(repo, new(MockMessaging), &MockLogger{})
	repo.On("FindDue", mock.Anything, nil).Return([]*domain.Settlement{}, nil).Maybe()

	worker := NewSettlementWorker(svc, &MockLogger{}, 10*time.Millisecond, 0)
	worker.Start(context.Background())

	done := make(chan struct{})
	go func() {
		worker.Stop()
		worker.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestSettlementWorker_DefaultsInterval(t *testing.T) {
	repo := new(MockSettlementRepository)
	svc := settlementsvc.NewService(repo, new(MockMessaging), &MockLogger{})

	worker := NewSettlementWorker(svc, &MockLogger{}, 0, 0)
	assert.Equal(t, time.Minute, worker.interval)
}
