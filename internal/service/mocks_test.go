package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/whwan4570/Workhaja-sub000/internal/models"
	"github.com/whwan4570/Workhaja-sub000/internal/repository"
)

// MockStorage мок хранилища для тестов движка
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) ListManagerIDs(ctx context.Context, storeID int64) ([]int64, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockStorage) GetShift(ctx context.Context, storeID, shiftID int64) (*models.Shift, error) {
	args := m.Called(ctx, storeID, shiftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shift), args.Error(1)
}

func (m *MockStorage) CreateRequest(ctx context.Context, req *models.ChangeRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockStorage) GetRequest(ctx context.Context, storeID int64, requestID uuid.UUID) (*models.ChangeRequest, error) {
	args := m.Called(ctx, storeID, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChangeRequest), args.Error(1)
}

func (m *MockStorage) ListRequests(ctx context.Context, storeID int64, f repository.RequestFilter) ([]models.ChangeRequest, error) {
	args := m.Called(ctx, storeID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChangeRequest), args.Error(1)
}

func (m *MockStorage) CancelRequest(ctx context.Context, storeID int64, requestID uuid.UUID, actorID int64) (*models.ChangeRequest, error) {
	args := m.Called(ctx, storeID, requestID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChangeRequest), args.Error(1)
}

func (m *MockStorage) RejectRequest(ctx context.Context, storeID int64, requestID uuid.UUID, reviewerID int64, note string) (*models.ChangeRequest, error) {
	args := m.Called(ctx, storeID, requestID, reviewerID, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChangeRequest), args.Error(1)
}

func (m *MockStorage) ApproveRequest(ctx context.Context, storeID int64, requestID uuid.UUID, reviewerID int64, note string, chosenUserID *int64) (*models.ChangeRequest, []models.Shift, error) {
	args := m.Called(ctx, storeID, requestID, reviewerID, note, chosenUserID)
	var req *models.ChangeRequest
	var shifts []models.Shift
	if args.Get(0) != nil {
		req = args.Get(0).(*models.ChangeRequest)
	}
	if args.Get(1) != nil {
		shifts = args.Get(1).([]models.Shift)
	}
	return req, shifts, args.Error(2)
}

func (m *MockStorage) CreateCandidate(ctx context.Context, storeID int64, cand *models.Candidate) error {
	args := m.Called(ctx, storeID, cand)
	return args.Error(0)
}

func (m *MockStorage) GetCandidate(ctx context.Context, requestID, candidateID uuid.UUID) (*models.Candidate, error) {
	args := m.Called(ctx, requestID, candidateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Candidate), args.Error(1)
}

func (m *MockStorage) ListCandidates(ctx context.Context, requestID uuid.UUID) ([]models.Candidate, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Candidate), args.Error(1)
}

func (m *MockStorage) IsCandidate(ctx context.Context, requestID uuid.UUID, userID int64) (bool, error) {
	args := m.Called(ctx, requestID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) DeleteCandidate(ctx context.Context, storeID int64, cand *models.Candidate) error {
	args := m.Called(ctx, storeID, cand)
	return args.Error(0)
}

// captureNotifier собирает поставленные в очередь уведомления
type captureNotifier struct {
	batches [][]models.Notification
}

func (c *captureNotifier) Enqueue(ns []models.Notification) {
	c.batches = append(c.batches, ns)
}
