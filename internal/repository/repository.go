// repository/repository.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/whwan4570/Workhaja-sub000/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrNotPending    = errors.New("request is not pending")
	ErrInvalidInput  = errors.New("invalid input")
)

// Код нарушения уникального ограничения PostgreSQL
const pgUniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetMembership возвращает роль пользователя в магазине
func (r *Repository) GetMembership(ctx context.Context, storeID, userID int64) (models.Role, error) {
	var role string
	query := `SELECT role FROM store_memberships WHERE store_id = $1 AND user_id = $2`
	err := r.pool.QueryRow(ctx, query, storeID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get membership: %w", err)
	}
	return models.Role(role), nil
}

// ListManagerIDs возвращает идентификаторы менеджеров и владельцев магазина
func (r *Repository) ListManagerIDs(ctx context.Context, storeID int64) ([]int64, error) {
	query := `
        SELECT user_id FROM store_memberships
        WHERE store_id = $1 AND role IN ($2, $3)
        ORDER BY user_id
    `
	rows, err := r.pool.Query(ctx, query, storeID, string(models.RoleManager), string(models.RoleOwner))
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan manager id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetShift получает смену магазина по ID
func (r *Repository) GetShift(ctx context.Context, storeID, shiftID int64) (*models.Shift, error) {
	query := `
        SELECT id, store_id, user_id, work_date, start_time, end_time, break_minutes, is_canceled, status
        FROM shifts
        WHERE id = $1 AND store_id = $2
    `
	var s models.Shift
	err := r.pool.QueryRow(ctx, query, shiftID, storeID).Scan(
		&s.ID, &s.StoreID, &s.UserID, &s.WorkDate, &s.StartTime, &s.EndTime,
		&s.BreakMinutes, &s.IsCanceled, &s.Status,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	return &s, nil
}

// getShiftForUpdate читает смену с блокировкой строки внутри транзакции
func getShiftForUpdate(ctx context.Context, tx pgx.Tx, storeID, shiftID int64) (*models.Shift, error) {
	query := `
        SELECT id, store_id, user_id, work_date, start_time, end_time, break_minutes, is_canceled, status
        FROM shifts
        WHERE id = $1 AND store_id = $2
        FOR UPDATE
    `
	var s models.Shift
	err := tx.QueryRow(ctx, query, shiftID, storeID).Scan(
		&s.ID, &s.StoreID, &s.UserID, &s.WorkDate, &s.StartTime, &s.EndTime,
		&s.BreakMinutes, &s.IsCanceled, &s.Status,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock shift: %w", err)
	}
	return &s, nil
}

// insertAudit пишет запись аудита; ошибка записи фатальна для объемлющей транзакции
func insertAudit(ctx context.Context, tx pgx.Tx, rec models.AuditRecord) error {
	before, after, err := marshalAuditStates(rec)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO audit_logs (store_id, actor_id, action, entity_type, entity_id, before_state, after_state)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err = tx.Exec(ctx, query,
		rec.StoreID, rec.ActorID, rec.Action, rec.EntityType, rec.EntityID, before, after,
	)
	if err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

func marshalAuditStates(rec models.AuditRecord) ([]byte, []byte, error) {
	var before, after []byte
	var err error
	if rec.BeforeState != nil {
		if before, err = json.Marshal(rec.BeforeState); err != nil {
			return nil, nil, fmt.Errorf("failed to marshal audit before-state: %w", err)
		}
	}
	if rec.AfterState != nil {
		if after, err = json.Marshal(rec.AfterState); err != nil {
			return nil, nil, fmt.Errorf("failed to marshal audit after-state: %w", err)
		}
	}
	return before, after, nil
}
