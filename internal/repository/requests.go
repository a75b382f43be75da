// repository/requests.go
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

// Набор колонок заявки для выборок
const requestColumns = `
    id, store_id, shift_id, requester_id, type, status, COALESCE(reason, ''),
    reviewer_id, review_note, reviewed_at, effective_at, created_at,
    proposed_start_time, proposed_end_time, proposed_break_minutes, target_shift_id
`

func scanRequest(row pgx.Row) (*models.ChangeRequest, error) {
	var req models.ChangeRequest
	err := row.Scan(
		&req.ID, &req.StoreID, &req.ShiftID, &req.RequesterID, &req.Type, &req.Status, &req.Reason,
		&req.ReviewerID, &req.ReviewNote, &req.ReviewedAt, &req.EffectiveAt, &req.CreatedAt,
		&req.ProposedStartTime, &req.ProposedEndTime, &req.ProposedBreakMinutes, &req.TargetShiftID,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// RequestFilter задает условия выборки заявок
type RequestFilter struct {
	Status      string
	Type        string
	RequesterID *int64
}

// CreateRequest создает заявку вместе с записью аудита в одной транзакции.
// Частичный уникальный индекс по PENDING-заявкам гарантирует не более одной
// ожидающей заявки на смену; нарушение возвращается как ErrAlreadyExists.
func (r *Repository) CreateRequest(ctx context.Context, req *models.ChangeRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := `
        INSERT INTO shift_change_requests
            (id, store_id, shift_id, requester_id, type, status, reason,
             proposed_start_time, proposed_end_time, proposed_break_minutes, target_shift_id)
        VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11)
        RETURNING created_at
    `
	err = tx.QueryRow(ctx, insertQuery,
		req.ID, req.StoreID, req.ShiftID, req.RequesterID, req.Type, req.Status, req.Reason,
		req.ProposedStartTime, req.ProposedEndTime, req.ProposedBreakMinutes, req.TargetShiftID,
	).Scan(&req.CreatedAt)
	if err != nil {
		// Гонка двух создателей: проигравший получает нарушение уникальности
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create request: %w", err)
	}

	err = insertAudit(ctx, tx, models.AuditRecord{
		StoreID:    req.StoreID,
		ActorID:    req.RequesterID,
		Action:     "request.create",
		EntityType: "shift_change_request",
		EntityID:   req.ID.String(),
		AfterState: req,
	})
	if err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRequest получает заявку магазина по ID
func (r *Repository) GetRequest(ctx context.Context, storeID int64, requestID uuid.UUID) (*models.ChangeRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM shift_change_requests WHERE id = $1 AND store_id = $2`
	req, err := scanRequest(r.pool.QueryRow(ctx, query, requestID, storeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// getRequestForUpdate читает заявку с блокировкой строки внутри транзакции.
// Блокировка сериализует конкурирующие approve/reject/cancel по одной заявке.
func getRequestForUpdate(ctx context.Context, tx pgx.Tx, storeID int64, requestID uuid.UUID) (*models.ChangeRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM shift_change_requests WHERE id = $1 AND store_id = $2 FOR UPDATE`
	req, err := scanRequest(tx.QueryRow(ctx, query, requestID, storeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock request: %w", err)
	}
	return req, nil
}

// ListRequests возвращает заявки магазина с учетом фильтров
func (r *Repository) ListRequests(ctx context.Context, storeID int64, f RequestFilter) ([]models.ChangeRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM shift_change_requests WHERE store_id = $1`
	args := []any{storeID}

	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if f.RequesterID != nil {
		args = append(args, *f.RequesterID)
		query += fmt.Sprintf(" AND requester_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []models.ChangeRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// CancelRequest переводит PENDING-заявку в CANCELED
func (r *Repository) CancelRequest(ctx context.Context, storeID int64, requestID uuid.UUID, actorID int64) (*models.ChangeRequest, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	old, err := getRequestForUpdate(ctx, tx, storeID, requestID)
	if err != nil {
		return nil, err
	}
	if old.Status != models.StatusPending {
		return nil, ErrNotPending
	}

	updateQuery := `
        UPDATE shift_change_requests SET status = $1
        WHERE id = $2
        RETURNING ` + requestColumns
	updated, err := scanRequest(tx.QueryRow(ctx, updateQuery, models.StatusCanceled, requestID))
	if err != nil {
		return nil, fmt.Errorf("failed to cancel request: %w", err)
	}

	err = insertAudit(ctx, tx, models.AuditRecord{
		StoreID:     storeID,
		ActorID:     actorID,
		Action:      "request.cancel",
		EntityType:  "shift_change_request",
		EntityID:    requestID.String(),
		BeforeState: old,
		AfterState:  updated,
	})
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

// RejectRequest переводит PENDING-заявку в REJECTED без изменения расписания
func (r *Repository) RejectRequest(ctx context.Context, storeID int64, requestID uuid.UUID, reviewerID int64, note string) (*models.ChangeRequest, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	old, err := getRequestForUpdate(ctx, tx, storeID, requestID)
	if err != nil {
		return nil, err
	}
	if old.Status != models.StatusPending {
		return nil, ErrNotPending
	}

	updateQuery := `
        UPDATE shift_change_requests
        SET status = $1, reviewer_id = $2, review_note = NULLIF($3, ''), reviewed_at = NOW(), effective_at = NOW()
        WHERE id = $4
        RETURNING ` + requestColumns
	updated, err := scanRequest(tx.QueryRow(ctx, updateQuery, models.StatusRejected, reviewerID, note, requestID))
	if err != nil {
		return nil, fmt.Errorf("failed to reject request: %w", err)
	}

	err = insertAudit(ctx, tx, models.AuditRecord{
		StoreID:     storeID,
		ActorID:     reviewerID,
		Action:      "request.reject",
		EntityType:  "shift_change_request",
		EntityID:    requestID.String(),
		BeforeState: old,
		AfterState:  updated,
	})
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

// ApproveRequest переводит PENDING-заявку в APPROVED и применяет эффект
// к одной или двум сменам в той же транзакции. Статус перепроверяется под
// блокировкой строки, поэтому двойное утверждение получает ErrNotPending.
// Для SWAP затронутые смены возвращаются в порядке (исходная, партнерская).
func (r *Repository) ApproveRequest(ctx context.Context, storeID int64, requestID uuid.UUID, reviewerID int64, note string, chosenUserID *int64) (*models.ChangeRequest, []models.Shift, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	old, err := getRequestForUpdate(ctx, tx, storeID, requestID)
	if err != nil {
		return nil, nil, err
	}
	if old.Status != models.StatusPending {
		return nil, nil, ErrNotPending
	}

	updateQuery := `
        UPDATE shift_change_requests
        SET status = $1, reviewer_id = $2, review_note = NULLIF($3, ''), reviewed_at = NOW(), effective_at = NOW()
        WHERE id = $4
        RETURNING ` + requestColumns
	updated, err := scanRequest(tx.QueryRow(ctx, updateQuery, models.StatusApproved, reviewerID, note, requestID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to approve request: %w", err)
	}

	affected, err := applyEffect(ctx, tx, old, reviewerID, chosenUserID)
	if err != nil {
		return nil, nil, err
	}

	err = insertAudit(ctx, tx, models.AuditRecord{
		StoreID:     storeID,
		ActorID:     reviewerID,
		Action:      "request.approve",
		EntityType:  "shift_change_request",
		EntityID:    requestID.String(),
		BeforeState: old,
		AfterState:  updated,
	})
	if err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, affected, nil
}

// applyEffect применяет типоспецифичную мутацию расписания внутри транзакции
func applyEffect(ctx context.Context, tx pgx.Tx, req *models.ChangeRequest, actorID int64, chosenUserID *int64) ([]models.Shift, error) {
	switch req.Type {
	case models.TypeTimeChange:
		if req.ProposedStartTime == nil || req.ProposedEndTime == nil {
			return nil, ErrInvalidInput
		}
		shift, err := getShiftForUpdate(ctx, tx, req.StoreID, req.ShiftID)
		if err != nil {
			return nil, err
		}
		before := *shift
		models.ApplyTimeChange(shift, models.TimeChangePayload{
			StartTime:    *req.ProposedStartTime,
			EndTime:      *req.ProposedEndTime,
			BreakMinutes: req.ProposedBreakMinutes,
		})
		if err := updateShift(ctx, tx, shift, actorID, "shift.update", &before); err != nil {
			return nil, err
		}
		return []models.Shift{*shift}, nil

	case models.TypeDrop:
		shift, err := getShiftForUpdate(ctx, tx, req.StoreID, req.ShiftID)
		if err != nil {
			return nil, err
		}
		before := *shift
		models.ApplyDrop(shift)
		if err := updateShift(ctx, tx, shift, actorID, "shift.cancel", &before); err != nil {
			return nil, err
		}
		return []models.Shift{*shift}, nil

	case models.TypeCover:
		if chosenUserID == nil {
			return nil, ErrInvalidInput
		}
		// Кандидатура перепроверяется под транзакцией: выбранный пользователь
		// мог отозвать ее после валидации снаружи
		var isCandidate bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM shift_change_candidates WHERE request_id = $1 AND user_id = $2)`
		if err := tx.QueryRow(ctx, checkQuery, req.ID, *chosenUserID).Scan(&isCandidate); err != nil {
			return nil, fmt.Errorf("failed to check candidate: %w", err)
		}
		if !isCandidate {
			return nil, ErrInvalidInput
		}
		shift, err := getShiftForUpdate(ctx, tx, req.StoreID, req.ShiftID)
		if err != nil {
			return nil, err
		}
		before := *shift
		models.ApplyCover(shift, *chosenUserID)
		if err := updateShift(ctx, tx, shift, actorID, "shift.reassign", &before); err != nil {
			return nil, err
		}
		return []models.Shift{*shift}, nil

	case models.TypeSwap:
		if req.TargetShiftID == nil {
			return nil, ErrInvalidInput
		}
		// Блокируем обе смены в порядке возрастания ID во избежание взаимоблокировки
		firstID, secondID := req.ShiftID, *req.TargetShiftID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}
		first, err := getShiftForUpdate(ctx, tx, req.StoreID, firstID)
		if err != nil {
			return nil, err
		}
		second, err := getShiftForUpdate(ctx, tx, req.StoreID, secondID)
		if err != nil {
			return nil, err
		}
		beforeFirst, beforeSecond := *first, *second
		models.ApplySwap(first, second)
		if err := updateShift(ctx, tx, first, actorID, "shift.reassign", &beforeFirst); err != nil {
			return nil, err
		}
		if err := updateShift(ctx, tx, second, actorID, "shift.reassign", &beforeSecond); err != nil {
			return nil, err
		}
		return swapAffected(req.ShiftID, first, second), nil

	default:
		return nil, ErrInvalidInput
	}
}

// swapAffected упорядочивает результат обмена: сначала исходная смена заявки,
// затем партнерская, независимо от порядка взятия блокировок
func swapAffected(originShiftID int64, a, b *models.Shift) []models.Shift {
	if a.ID == originShiftID {
		return []models.Shift{*a, *b}
	}
	return []models.Shift{*b, *a}
}

// updateShift сохраняет измененную смену и пишет запись аудита по ней
func updateShift(ctx context.Context, tx pgx.Tx, shift *models.Shift, actorID int64, action string, before *models.Shift) error {
	query := `
        UPDATE shifts
        SET user_id = $1, start_time = $2, end_time = $3, break_minutes = $4, is_canceled = $5, updated_at = NOW()
        WHERE id = $6 AND store_id = $7
    `
	tag, err := tx.Exec(ctx, query,
		shift.UserID, shift.StartTime, shift.EndTime, shift.BreakMinutes, shift.IsCanceled,
		shift.ID, shift.StoreID,
	)
	if err != nil {
		return fmt.Errorf("failed to update shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return insertAudit(ctx, tx, models.AuditRecord{
		StoreID:     shift.StoreID,
		ActorID:     actorID,
		Action:      action,
		EntityType:  "shift",
		EntityID:    fmt.Sprintf("%d", shift.ID),
		BeforeState: before,
		AfterState:  shift,
	})
}
