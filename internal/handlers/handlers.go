// handlers/handlers.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/whwan4570/Workhaja-sub000/internal/models"
	"github.com/whwan4570/Workhaja-sub000/internal/service"
	"go.uber.org/zap"
)

// Коды ошибок для API
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL"
)

// Engine описывает операции движка заявок, которые использует HTTP-слой
type Engine interface {
	CreateRequest(ctx context.Context, auth models.AuthContext, input service.CreateRequestInput) (*models.ChangeRequest, error)
	ListRequests(ctx context.Context, auth models.AuthContext, filter service.ListFilter) ([]models.ChangeRequest, error)
	GetRequest(ctx context.Context, auth models.AuthContext, requestID uuid.UUID) (*models.ChangeRequest, error)
	CancelRequest(ctx context.Context, auth models.AuthContext, requestID uuid.UUID) (*models.ChangeRequest, error)
	ApproveRequest(ctx context.Context, auth models.AuthContext, requestID uuid.UUID, decision service.DecisionInput) (*service.ApproveResult, error)
	RejectRequest(ctx context.Context, auth models.AuthContext, requestID uuid.UUID, decision service.DecisionInput) (*models.ChangeRequest, error)
	Volunteer(ctx context.Context, auth models.AuthContext, requestID uuid.UUID, note string) (*models.Candidate, error)
	Withdraw(ctx context.Context, auth models.AuthContext, requestID, candidateID uuid.UUID) error
	ListCandidates(ctx context.Context, auth models.AuthContext, requestID uuid.UUID) ([]models.Candidate, error)
}

type Handler struct {
	engine      Engine
	memberships MembershipResolver
	logger      *zap.Logger
}

// New создает новый экземпляр обработчика
func New(engine Engine, memberships MembershipResolver, logger *zap.Logger) *Handler {
	return &Handler{
		engine:      engine,
		memberships: memberships,
		logger:      logger,
	}
}

// ErrorResponse представляет структуру ошибки API
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newErrorResponse создает стандартный ответ с ошибкой
func newErrorResponse(code, message string) ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	return resp
}

// writeServiceError сопоставляет ошибку движка с HTTP-кодом.
// Наружу уходит только вид ошибки и причина, детали хранилища не раскрываются.
func (h *Handler) writeServiceError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, newErrorResponse(ErrCodeNotFound, err.Error()))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, newErrorResponse(ErrCodeForbidden, err.Error()))
	case errors.Is(err, service.ErrBadRequest):
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeBadRequest, err.Error()))
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, newErrorResponse(ErrCodeConflict, err.Error()))
	default:
		h.logger.Error(op+": внутренняя ошибка", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, newErrorResponse(ErrCodeInternal, "internal error"))
	}
}

func parseRequestID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("request_id"))
}

// createRequestBody — тело запроса на создание заявки; типоспецифичные
// поля собираются в типизированную полезную нагрузку по значению type
type createRequestBody struct {
	ShiftID       int64  `json:"shift_id"`
	Type          string `json:"type"`
	Reason        string `json:"reason"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	BreakMinutes  *int   `json:"break_minutes"`
	TargetShiftID int64  `json:"target_shift_id"`
}

func (b createRequestBody) payload() models.RequestPayload {
	switch b.Type {
	case models.TypeTimeChange:
		return models.TimeChangePayload{
			StartTime:    b.StartTime,
			EndTime:      b.EndTime,
			BreakMinutes: b.BreakMinutes,
		}
	case models.TypeDrop:
		return models.DropPayload{}
	case models.TypeCover:
		return models.CoverPayload{}
	case models.TypeSwap:
		return models.SwapPayload{TargetShiftID: b.TargetShiftID}
	default:
		return nil
	}
}

// CreateRequest создает заявку на изменение смены
func (h *Handler) CreateRequest(c echo.Context) error {
	auth := authFromContext(c)

	var body createRequestBody
	if err := c.Bind(&body); err != nil {
		h.logger.Error("CreateRequest: ошибка парсинга тела запроса", zap.Error(err))
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeBadRequest, "invalid request body"))
	}

	h.logger.Info("CreateRequest: создание заявки",
		zap.Int64("store_id", auth.StoreID),
		zap.Int64("shift_id", body.ShiftID),
		zap.String("type", body.Type))

	req, err := h.engine.CreateRequest(c.Request().Context(), auth, service.CreateRequestInput{
		ShiftID: body.ShiftID,
		Type:    body.Type,
		Payload: body.payload(),
		Reason:  body.Reason,
	})
	if err != nil {
		return h.writeServiceError(c, "CreateRequest", err)
	}

	h.logger.Info("CreateRequest: заявка создана", zap.String("request_id", req.ID.String()))
	return c.JSON(http.StatusCreated, map[string]any{"request": req})
}

// ListRequests возвращает заявки магазина с учетом фильтров
func (h *Handler) ListRequests(c echo.Context) error {
	auth := authFromContext(c)

	filter := service.ListFilter{
		Status: c.QueryParam("status"),
		Type:   c.QueryParam("type"),
		Mine:   c.QueryParam("mine") == "true",
	}

	requests, err := h.engine.ListRequests(c.Request().Context(), auth, filter)
	if err != nil {
		return h.writeServiceError(c, "ListRequests", err)
	}

	if requests == nil {
		requests = []models.ChangeRequest{}
	}
	return c.JSON(http.StatusOK, map[string]any{"requests": requests})
}

// GetRequest возвращает заявку по ID
func (h *Handler) GetRequest(c echo.Context) error {
	auth := authFromContext(c)

	requestID, err := parseRequestID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeBadRequest, "invalid request id"))
	}

	req, err := h.engine.GetRequest(c.Request().Context(), auth, requestID)
	if err != nil {
		return h.writeServiceError(c, "GetRequest", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"request": req})
}

// CancelRequest отменяет заявку ее автором
func (h *Handler) CancelRequest(c echo.Context) error {
	auth := authFromContext(c)

	requestID, err := parseRequestID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeBadRequest, "invalid request id"))
	}

	h.logger.Info("CancelRequest: отмена заявки", zap.String("request_id", requestID.String()))

	req, err := h.engine.CancelRequest(c.Request().Context(), auth, requestID)
	if err != nil {
		return h.writeServiceError(c, "CancelRequest", err)
	}

	h.logger.Info("CancelRequest: заявка отменена", zap.String("request_id", requestID.String()))
	return c.JSON(http.StatusOK, map[string]any{"request": req})
}

type decisionBody struct {
	Note         string `json:"note"`
	ChosenUserID *int64 `json:"chosen_user_id"`
}

// ApproveRequest утверждает заявку и применяет эффект к расписанию
func (h *Handler) ApproveRequest(c echo.Context) error {
	auth := authFromContext(c)

	requestID, err := parseRequestID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeBadRequest, "invalid request id"))
	}

	var body decisionBody
	if err := c.Bind(&body); err != nil {
		h.logger.Error("ApproveRequest: ошибка парсинга тела запроса", zap.Error(err))
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeBadRequest, "invalid request body"))
	}

	h.logger.Info("ApproveRequest: утверждение заявки",
		zap.String("request_id", requestID.String()),
		zap.Int64("reviewer_id", auth.UserID))

	result, err := h.engine.ApproveRequest(c.Request().Context(), auth, requestID, service.DecisionInput{
		Note:         body.Note,
		ChosenUserID: body.ChosenUserID,
	})
	if err != nil {
		return h.writeServiceError(c, "ApproveRequest", err)
	}

	h.logger.Info("ApproveRequest: заявка утверждена",
		zap.String("request_id", requestID.String()),
		zap.Int("affected_shifts", len(result.AffectedShifts)))
	return c.JSON(http.StatusOK, result)
}

// RejectRequest отклоняет заявку
func (h *Handler) RejectRequest(c echo.Context) error {
	auth := authFromContext(c)

	requestID, err := parseRequestID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeBadRequest, "invalid request id"))
	}

	var body decisionBody
	if err := c.Bind(&body); err != nil {
		h.logger.Error("RejectRequest: ошибка парсинга тела запроса", zap.Error(err))
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeBadRequest, "invalid request body"))
	}

	h.logger.Info("RejectRequest: отклонение заявки",
		zap.String("request_id", requestID.String()),
		zap.Int64("reviewer_id", auth.UserID))

	req, err := h.engine.RejectRequest(c.Request().Context(), auth, requestID, service.DecisionInput{Note: body.Note})
	if err != nil {
		return h.writeServiceError(c, "RejectRequest", err)
	}

	h.logger.Info("RejectRequest: заявка отклонена", zap.String("request_id", requestID.String()))
	return c.JSON(http.StatusOK, map[string]any{"request": req})
}

// Volunteer регистрирует кандидатуру на COVER-заявку
func (h *Handler) Volunteer(c echo.Context) error {
	auth := authFromContext(c)

	requestID, err := parseRequestID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeBadRequest, "invalid request id"))
	}

	var body struct {
		Note string `json:"note"`
	}
	if err := c.Bind(&body); err != nil {
		h.logger.Error("Volunteer: ошибка парсинга тела запроса", zap.Error(err))
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeBadRequest, "invalid request body"))
	}

	h.logger.Info("Volunteer: подача кандидатуры",
		zap.String("request_id", requestID.String()),
		zap.Int64("user_id", auth.UserID))

	cand, err := h.engine.Volunteer(c.Request().Context(), auth, requestID, body.Note)
	if err != nil {
		return h.writeServiceError(c, "Volunteer", err)
	}

	h.logger.Info("Volunteer: кандидатура зарегистрирована", zap.String("candidate_id", cand.ID.String()))
	return c.JSON(http.StatusCreated, map[string]any{"candidate": cand})
}

// Withdraw отзывает кандидатуру
func (h *Handler) Withdraw(c echo.Context) error {
	auth := authFromContext(c)

	requestID, err := parseRequestID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeBadRequest, "invalid request id"))
	}
	candidateID, err := uuid.Parse(c.Param("candidate_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeBadRequest, "invalid candidate id"))
	}

	h.logger.Info("Withdraw: отзыв кандидатуры",
		zap.String("request_id", requestID.String()),
		zap.String("candidate_id", candidateID.String()))

	if err := h.engine.Withdraw(c.Request().Context(), auth, requestID, candidateID); err != nil {
		return h.writeServiceError(c, "Withdraw", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListCandidates возвращает кандидатуры заявки
func (h *Handler) ListCandidates(c echo.Context) error {
	auth := authFromContext(c)

	requestID, err := parseRequestID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeBadRequest, "invalid request id"))
	}

	candidates, err := h.engine.ListCandidates(c.Request().Context(), auth, requestID)
	if err != nil {
		return h.writeServiceError(c, "ListCandidates", err)
	}

	if candidates == nil {
		candidates = []models.Candidate{}
	}
	return c.JSON(http.StatusOK, map[string]any{"candidates": candidates})
}

// RegisterRoutes регистрирует все маршруты API
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/stores/:store_id", h.authMiddleware)

	// Заявки на изменение смен
	g.POST("/shift-requests", h.CreateRequest)
	g.GET("/shift-requests", h.ListRequests)
	g.GET("/shift-requests/:request_id", h.GetRequest)
	g.POST("/shift-requests/:request_id/cancel", h.CancelRequest)
	g.POST("/shift-requests/:request_id/approve", h.ApproveRequest)
	g.POST("/shift-requests/:request_id/reject", h.RejectRequest)

	// Кандидатуры по COVER-заявкам
	g.POST("/shift-requests/:request_id/candidates", h.Volunteer)
	g.GET("/shift-requests/:request_id/candidates", h.ListCandidates)
	g.DELETE("/shift-requests/:request_id/candidates/:candidate_id", h.Withdraw)
}
