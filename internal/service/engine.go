// service/engine.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/whwan4570/Workhaja-sub000/internal/models"
	"github.com/whwan4570/Workhaja-sub000/internal/repository"
	"go.uber.org/zap"
)

// Срок жизни уведомлений о заявках; устаревшие отбрасываются при доставке
const notificationTTL = 48 * time.Hour

// CreateRequest создает заявку на изменение опубликованной смены.
// Не более одной PENDING-заявки на смену: гонку двух создателей разрешает
// уникальный индекс хранилища, проигравший получает ErrConflict.
func (s *Service) CreateRequest(ctx context.Context, auth models.AuthContext, input CreateRequestInput) (*models.ChangeRequest, error) {
	if input.Payload == nil || input.Payload.RequestType() != input.Type {
		return nil, badRequest("unknown request type %q", input.Type)
	}
	if err := input.Payload.Validate(); err != nil {
		return nil, badRequest("%s", err.Error())
	}

	shift, err := s.storage.GetShift(ctx, auth.StoreID, input.ShiftID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("shift %d not found", input.ShiftID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shift: %w", err)
	}
	if shift.Status != models.ShiftPublished {
		return nil, badRequest("shift %d is not published", input.ShiftID)
	}
	// Работник может подавать заявки только на собственные смены
	if auth.Role == models.RoleWorker && shift.UserID != auth.UserID {
		return nil, forbidden("workers may only request changes to their own shifts")
	}

	if p, ok := input.Payload.(models.SwapPayload); ok {
		if err := s.validateSwapTarget(ctx, auth.StoreID, shift, p); err != nil {
			return nil, err
		}
	}

	req := &models.ChangeRequest{
		ID:          uuid.New(),
		StoreID:     auth.StoreID,
		ShiftID:     input.ShiftID,
		RequesterID: auth.UserID,
		Type:        input.Type,
		Status:      models.StatusPending,
		Reason:      input.Reason,
	}
	if err := req.ApplyPayload(input.Payload); err != nil {
		return nil, badRequest("%s", err.Error())
	}

	err = s.storage.CreateRequest(ctx, req)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return nil, conflict("a pending request already exists for shift %d", input.ShiftID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.notifyManagers(ctx, auth.StoreID, req)
	return req, nil
}

// validateSwapTarget проверяет смену-партнера SWAP-заявки
func (s *Service) validateSwapTarget(ctx context.Context, storeID int64, origin *models.Shift, p models.SwapPayload) error {
	if p.TargetShiftID == origin.ID {
		return badRequest("cannot swap a shift with itself")
	}
	target, err := s.storage.GetShift(ctx, storeID, p.TargetShiftID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("swap target shift %d not found", p.TargetShiftID)
	}
	if err != nil {
		return fmt.Errorf("failed to load swap target shift: %w", err)
	}
	if target.Status != models.ShiftPublished {
		return badRequest("swap target shift %d is not published", p.TargetShiftID)
	}
	if target.UserID == origin.UserID {
		return badRequest("swap target shift has the same assignee")
	}
	return nil
}

// ListRequests возвращает заявки магазина. Работник всегда ограничен
// собственными заявками независимо от фильтра mine.
func (s *Service) ListRequests(ctx context.Context, auth models.AuthContext, filter ListFilter) ([]models.ChangeRequest, error) {
	f := repository.RequestFilter{
		Status: filter.Status,
		Type:   filter.Type,
	}
	if auth.Role == models.RoleWorker || filter.Mine {
		userID := auth.UserID
		f.RequesterID = &userID
	}

	requests, err := s.storage.ListRequests(ctx, auth.StoreID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, nil
}

// GetRequest возвращает заявку. Работник видит только свои заявки и заявки,
// на которые он подал кандидатуру.
func (s *Service) GetRequest(ctx context.Context, auth models.AuthContext, requestID uuid.UUID) (*models.ChangeRequest, error) {
	req, err := s.loadRequest(ctx, auth.StoreID, requestID)
	if err != nil {
		return nil, err
	}

	if auth.Role == models.RoleWorker && req.RequesterID != auth.UserID {
		isCandidate, err := s.storage.IsCandidate(ctx, req.ID, auth.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check candidacy: %w", err)
		}
		if !isCandidate {
			return nil, forbidden("request %s is not visible to this user", requestID)
		}
	}
	return req, nil
}

// CancelRequest отменяет PENDING-заявку; доступно только ее автору
func (s *Service) CancelRequest(ctx context.Context, auth models.AuthContext, requestID uuid.UUID) (*models.ChangeRequest, error) {
	req, err := s.loadRequest(ctx, auth.StoreID, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequesterID != auth.UserID {
		return nil, forbidden("only the requester may cancel the request")
	}
	if req.Status != models.StatusPending {
		return nil, badRequest("request %s is already %s", requestID, req.Status)
	}

	updated, err := s.storage.CancelRequest(ctx, auth.StoreID, requestID, auth.UserID)
	if errors.Is(err, repository.ErrNotPending) {
		return nil, conflict("request %s is no longer pending", requestID)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("request %s not found", requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel request: %w", err)
	}
	return updated, nil
}

// ApproveRequest утверждает PENDING-заявку и применяет эффект к расписанию.
// Статус, эффект и аудит фиксируются одной транзакцией хранилища; автор
// уведомляется после коммита.
func (s *Service) ApproveRequest(ctx context.Context, auth models.AuthContext, requestID uuid.UUID, decision DecisionInput) (*ApproveResult, error) {
	if !auth.Role.OneOf(models.RoleManager, models.RoleOwner) {
		return nil, forbidden("only managers and owners may approve requests")
	}

	req, err := s.loadRequest(ctx, auth.StoreID, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusPending {
		return nil, conflict("request %s is already %s", requestID, req.Status)
	}

	if req.Type == models.TypeCover {
		if decision.ChosenUserID == nil {
			return nil, badRequest("chosen_user_id is required for COVER requests")
		}
		isCandidate, err := s.storage.IsCandidate(ctx, req.ID, *decision.ChosenUserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check candidacy: %w", err)
		}
		if !isCandidate {
			return nil, badRequest("user %d is not a candidate on this request", *decision.ChosenUserID)
		}
	}

	updated, affected, err := s.storage.ApproveRequest(ctx, auth.StoreID, requestID, auth.UserID, decision.Note, decision.ChosenUserID)
	switch {
	case errors.Is(err, repository.ErrNotPending):
		return nil, conflict("request %s is no longer pending", requestID)
	case errors.Is(err, repository.ErrInvalidInput):
		return nil, badRequest("request %s payload is not applicable", requestID)
	case errors.Is(err, repository.ErrNotFound):
		return nil, notFound("request %s or its shift not found", requestID)
	case err != nil:
		return nil, fmt.Errorf("failed to approve request: %w", err)
	}

	s.notifyDecision(ctx, updated)
	return &ApproveResult{Request: updated, AffectedShifts: affected}, nil
}

// RejectRequest отклоняет PENDING-заявку без изменения расписания
func (s *Service) RejectRequest(ctx context.Context, auth models.AuthContext, requestID uuid.UUID, decision DecisionInput) (*models.ChangeRequest, error) {
	if !auth.Role.OneOf(models.RoleManager, models.RoleOwner) {
		return nil, forbidden("only managers and owners may reject requests")
	}

	req, err := s.loadRequest(ctx, auth.StoreID, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusPending {
		return nil, conflict("request %s is already %s", requestID, req.Status)
	}

	updated, err := s.storage.RejectRequest(ctx, auth.StoreID, requestID, auth.UserID, decision.Note)
	if errors.Is(err, repository.ErrNotPending) {
		return nil, conflict("request %s is no longer pending", requestID)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("request %s not found", requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reject request: %w", err)
	}

	s.notifyDecision(ctx, updated)
	return updated, nil
}

func (s *Service) loadRequest(ctx context.Context, storeID int64, requestID uuid.UUID) (*models.ChangeRequest, error) {
	req, err := s.storage.GetRequest(ctx, storeID, requestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("request %s not found", requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	return req, nil
}

// notifyManagers ставит в очередь уведомление менеджерам о новой заявке.
// Ошибки здесь журналируются и не доходят до вызывающего.
func (s *Service) notifyManagers(ctx context.Context, storeID int64, req *models.ChangeRequest) {
	managerIDs, err := s.storage.ListManagerIDs(ctx, storeID)
	if err != nil {
		s.logger.Warn("не удалось получить получателей уведомления",
			zap.Int64("store_id", storeID), zap.Error(err))
		return
	}
	s.enqueueFor(storeID, managerIDs, "request_created",
		"New shift change request",
		fmt.Sprintf("A %s request was submitted for shift %d", req.Type, req.ShiftID),
		req)
}

// notifyDecision ставит в очередь уведомление автору о решении по заявке
func (s *Service) notifyDecision(_ context.Context, req *models.ChangeRequest) {
	message := fmt.Sprintf("Your %s request for shift %d was %s", req.Type, req.ShiftID, req.Status)
	if req.ReviewNote != nil {
		message += ": " + *req.ReviewNote
	}
	s.enqueueFor(req.StoreID, []int64{req.RequesterID}, "request_decided",
		"Shift change request decided", message, req)
}

// enqueueFor собирает уведомления с уже присвоенными идентификаторами
// и передает их диспетчеру
func (s *Service) enqueueFor(storeID int64, userIDs []int64, kind, title, message string, req *models.ChangeRequest) {
	if len(userIDs) == 0 {
		return
	}
	expiresAt := s.now().Add(notificationTTL)
	ns := make([]models.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		ns = append(ns, models.Notification{
			ID:      uuid.New(),
			StoreID: storeID,
			UserID:  userID,
			Type:    kind,
			Title:   title,
			Message: message,
			Payload: map[string]any{
				"request_id": req.ID.String(),
				"shift_id":   req.ShiftID,
				"type":       req.Type,
				"status":     req.Status,
			},
			ExpiresAt: &expiresAt,
		})
	}
	s.notifier.Enqueue(ns)
}
