// repository/candidates.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/whwan4570/Workhaja-sub000/internal/models"
)

// CreateCandidate регистрирует кандидатуру вместе с записью аудита.
// Уникальное ограничение (request_id, user_id) закрывает гонку двойной
// подачи; нарушение возвращается как ErrAlreadyExists.
func (r *Repository) CreateCandidate(ctx context.Context, storeID int64, cand *models.Candidate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := `
        INSERT INTO shift_change_candidates (id, request_id, user_id, note)
        VALUES ($1, $2, $3, NULLIF($4, ''))
        RETURNING created_at
    `
	err = tx.QueryRow(ctx, insertQuery, cand.ID, cand.RequestID, cand.UserID, cand.Note).Scan(&cand.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create candidate: %w", err)
	}

	err = insertAudit(ctx, tx, models.AuditRecord{
		StoreID:    storeID,
		ActorID:    cand.UserID,
		Action:     "candidate.add",
		EntityType: "shift_change_candidate",
		EntityID:   cand.ID.String(),
		AfterState: cand,
	})
	if err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCandidate получает кандидатуру по ID в рамках заявки
func (r *Repository) GetCandidate(ctx context.Context, requestID, candidateID uuid.UUID) (*models.Candidate, error) {
	query := `
        SELECT id, request_id, user_id, COALESCE(note, ''), created_at
        FROM shift_change_candidates
        WHERE id = $1 AND request_id = $2
    `
	var cand models.Candidate
	err := r.pool.QueryRow(ctx, query, candidateID, requestID).Scan(
		&cand.ID, &cand.RequestID, &cand.UserID, &cand.Note, &cand.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return &cand, nil
}

// ListCandidates возвращает все кандидатуры заявки
func (r *Repository) ListCandidates(ctx context.Context, requestID uuid.UUID) ([]models.Candidate, error) {
	query := `
        SELECT id, request_id, user_id, COALESCE(note, ''), created_at
        FROM shift_change_candidates
        WHERE request_id = $1
        ORDER BY created_at
    `
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []models.Candidate
	for rows.Next() {
		var cand models.Candidate
		if err := rows.Scan(&cand.ID, &cand.RequestID, &cand.UserID, &cand.Note, &cand.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, cand)
	}
	return candidates, rows.Err()
}

// IsCandidate проверяет, есть ли у пользователя кандидатура на заявку
func (r *Repository) IsCandidate(ctx context.Context, requestID uuid.UUID, userID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM shift_change_candidates WHERE request_id = $1 AND user_id = $2)`
	if err := r.pool.QueryRow(ctx, query, requestID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check candidacy: %w", err)
	}
	return exists, nil
}

// DeleteCandidate удаляет кандидатуру вместе с записью аудита
func (r *Repository) DeleteCandidate(ctx context.Context, storeID int64, cand *models.Candidate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM shift_change_candidates WHERE id = $1 AND request_id = $2`, cand.ID, cand.RequestID)
	if err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	err = insertAudit(ctx, tx, models.AuditRecord{
		StoreID:     storeID,
		ActorID:     cand.UserID,
		Action:      "candidate.withdraw",
		EntityType:  "shift_change_candidate",
		EntityID:    cand.ID.String(),
		BeforeState: cand,
	})
	if err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
