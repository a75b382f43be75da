// service/candidates.go
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/whwan4570/Workhaja-sub000/internal/models"
	"github.com/whwan4570/Workhaja-sub000/internal/repository"
)

// Volunteer регистрирует кандидатуру пользователя на COVER-заявку.
// Гонку двойной подачи разрешает уникальное ограничение хранилища,
// проигравший получает ErrConflict.
func (s *Service) Volunteer(ctx context.Context, auth models.AuthContext, requestID uuid.UUID, note string) (*models.Candidate, error) {
	req, err := s.loadRequest(ctx, auth.StoreID, requestID)
	if err != nil {
		return nil, err
	}
	if req.Type != models.TypeCover {
		return nil, badRequest("request %s is not a COVER request", requestID)
	}
	if req.Status != models.StatusPending {
		return nil, conflict("request %s is no longer pending", requestID)
	}
	if req.RequesterID == auth.UserID {
		return nil, forbidden("the requester may not volunteer for their own request")
	}

	cand := &models.Candidate{
		ID:        uuid.New(),
		RequestID: requestID,
		UserID:    auth.UserID,
		Note:      note,
	}
	err = s.storage.CreateCandidate(ctx, auth.StoreID, cand)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return nil, conflict("user %d has already volunteered for request %s", auth.UserID, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}

	s.enqueueFor(auth.StoreID, []int64{req.RequesterID}, "candidate_added",
		"New cover candidate",
		fmt.Sprintf("User %d volunteered to cover shift %d", auth.UserID, req.ShiftID),
		req)
	return cand, nil
}

// Withdraw удаляет кандидатуру; доступно только ее владельцу.
// Статус заявки не проверяется: отзыв по уже решенной заявке безвреден.
func (s *Service) Withdraw(ctx context.Context, auth models.AuthContext, requestID, candidateID uuid.UUID) error {
	if _, err := s.loadRequest(ctx, auth.StoreID, requestID); err != nil {
		return err
	}

	cand, err := s.storage.GetCandidate(ctx, requestID, candidateID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("candidate %s not found", candidateID)
	}
	if err != nil {
		return fmt.Errorf("failed to load candidate: %w", err)
	}
	if cand.UserID != auth.UserID {
		return forbidden("only the volunteer may withdraw their candidacy")
	}

	err = s.storage.DeleteCandidate(ctx, auth.StoreID, cand)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("candidate %s not found", candidateID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	return nil
}

// ListCandidates возвращает кандидатуры заявки. Менеджер, владелец и автор
// видят полный список; кандидат-работник — только свою запись; прочим
// работникам доступ запрещен.
func (s *Service) ListCandidates(ctx context.Context, auth models.AuthContext, requestID uuid.UUID) ([]models.Candidate, error) {
	req, err := s.loadRequest(ctx, auth.StoreID, requestID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.storage.ListCandidates(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	if auth.Role.OneOf(models.RoleManager, models.RoleOwner) || req.RequesterID == auth.UserID {
		return candidates, nil
	}

	var own []models.Candidate
	for _, cand := range candidates {
		if cand.UserID == auth.UserID {
			own = append(own, cand)
		}
	}
	if len(own) == 0 {
		return nil, forbidden("request %s candidates are not visible to this user", requestID)
	}
	return own, nil
}
