// service/service.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/whwan4570/Workhaja-sub000/internal/models"
	"github.com/whwan4570/Workhaja-sub000/internal/repository"
	"go.uber.org/zap"
)

// Storage описывает операции хранилища, нужные движку заявок.
// Транзакционные инварианты (одна PENDING-заявка на смену, одна кандидатура
// на пользователя, перепроверка статуса под блокировкой) — обязанность
// реализации.
type Storage interface {
	ListManagerIDs(ctx context.Context, storeID int64) ([]int64, error)
	GetShift(ctx context.Context, storeID, shiftID int64) (*models.Shift, error)

	CreateRequest(ctx context.Context, req *models.ChangeRequest) error
	GetRequest(ctx context.Context, storeID int64, requestID uuid.UUID) (*models.ChangeRequest, error)
	ListRequests(ctx context.Context, storeID int64, f repository.RequestFilter) ([]models.ChangeRequest, error)
	CancelRequest(ctx context.Context, storeID int64, requestID uuid.UUID, actorID int64) (*models.ChangeRequest, error)
	RejectRequest(ctx context.Context, storeID int64, requestID uuid.UUID, reviewerID int64, note string) (*models.ChangeRequest, error)
	ApproveRequest(ctx context.Context, storeID int64, requestID uuid.UUID, reviewerID int64, note string, chosenUserID *int64) (*models.ChangeRequest, []models.Shift, error)

	CreateCandidate(ctx context.Context, storeID int64, cand *models.Candidate) error
	GetCandidate(ctx context.Context, requestID, candidateID uuid.UUID) (*models.Candidate, error)
	ListCandidates(ctx context.Context, requestID uuid.UUID) ([]models.Candidate, error)
	IsCandidate(ctx context.Context, requestID uuid.UUID, userID int64) (bool, error)
	DeleteCandidate(ctx context.Context, storeID int64, cand *models.Candidate) error
}

// Notifier принимает уведомления на отложенную доставку после коммита.
// Вызов не блокирует и не возвращает ошибку: сбои доставки не влияют
// на уже зафиксированное решение.
type Notifier interface {
	Enqueue(ns []models.Notification)
}

// Service реализует движок заявок на изменение смен и реестр кандидатов
type Service struct {
	storage  Storage
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func New(storage Storage, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		storage:  storage,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateRequestInput — параметры создания заявки
type CreateRequestInput struct {
	ShiftID int64
	Type    string
	Payload models.RequestPayload
	Reason  string
}

// ListFilter — фильтры выборки заявок
type ListFilter struct {
	Status string
	Type   string
	Mine   bool
}

// DecisionInput — параметры решения по заявке
type DecisionInput struct {
	Note         string
	ChosenUserID *int64
}

// ApproveResult — утвержденная заявка и затронутые смены
type ApproveResult struct {
	Request        *models.ChangeRequest `json:"request"`
	AffectedShifts []models.Shift        `json:"affected_shifts"`
}
