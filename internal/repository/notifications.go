// repository/notifications.go
package repository

import (
	"context"
	"fmt"

	"github.com/whwan4570/Workhaja-sub000/internal/models"
)

// CreateNotifications сохраняет пачку уведомлений одной транзакцией.
// Идентификаторы уже присвоены отправителем, повторных выборок по времени
// создания здесь нет.
func (r *Repository) CreateNotifications(ctx context.Context, ns []models.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO notifications (id, store_id, user_id, type, title, message, payload, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	for _, n := range ns {
		if _, err := tx.Exec(ctx, query,
			n.ID, n.StoreID, n.UserID, n.Type, n.Title, n.Message, n.Payload, n.ExpiresAt,
		); err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
