// handlers/auth.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/whwan4570/Workhaja-sub000/internal/models"
	"github.com/whwan4570/Workhaja-sub000/internal/repository"
	"go.uber.org/zap"
)

// Заголовок с идентификатором пользователя, проставляется вышестоящим шлюзом
const userIDHeader = "X-User-Id"

const authContextKey = "auth"

// MembershipResolver разрешает роль пользователя в магазине
type MembershipResolver interface {
	GetMembership(ctx context.Context, storeID, userID int64) (models.Role, error)
}

// authMiddleware разрешает контекст вызова: пользователь из заголовка,
// магазин из пути, роль из членства. Не-участники магазина получают 403
// до вызова движка.
func (h *Handler) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := strconv.ParseInt(c.Request().Header.Get(userIDHeader), 10, 64)
		if err != nil || userID <= 0 {
			h.logger.Warn("auth: отсутствует или некорректен заголовок пользователя")
			return c.JSON(http.StatusUnauthorized, newErrorResponse(ErrCodeUnauthorized, "missing or invalid "+userIDHeader+" header"))
		}

		storeID, err := strconv.ParseInt(c.Param("store_id"), 10, 64)
		if err != nil || storeID <= 0 {
			return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeBadRequest, "invalid store id"))
		}

		role, err := h.memberships.GetMembership(c.Request().Context(), storeID, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				h.logger.Warn("auth: пользователь не состоит в магазине",
					zap.Int64("user_id", userID), zap.Int64("store_id", storeID))
				return c.JSON(http.StatusForbidden, newErrorResponse(ErrCodeForbidden, "user is not a member of this store"))
			}
			h.logger.Error("auth: ошибка разрешения членства", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, newErrorResponse(ErrCodeInternal, "failed to resolve membership"))
		}

		c.Set(authContextKey, models.AuthContext{
			UserID:  userID,
			StoreID: storeID,
			Role:    role,
		})
		return next(c)
	}
}

func authFromContext(c echo.Context) models.AuthContext {
	auth, _ := c.Get(authContextKey).(models.AuthContext)
	return auth
}
