// models/models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role представляет роль пользователя в магазине
type Role string

const (
	RoleWorker  Role = "worker"
	RoleManager Role = "manager"
	RoleOwner   Role = "owner"
)

// OneOf проверяет, входит ли роль в набор разрешенных
func (r Role) OneOf(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// Константы типов заявок
const (
	TypeTimeChange = "TIME_CHANGE"
	TypeDrop       = "DROP"
	TypeCover      = "COVER"
	TypeSwap       = "SWAP"
)

// Константы статусов заявок
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
	StatusCanceled = "CANCELED"
)

// Константы статусов смен
const (
	ShiftDraft     = "draft"
	ShiftPublished = "published"
)

// AuthContext представляет разрешенный контекст вызова: кто и в каком магазине
type AuthContext struct {
	UserID  int64 `json:"user_id"`
	StoreID int64 `json:"store_id"`
	Role    Role  `json:"role"`
}

// Shift представляет смену в расписании магазина
type Shift struct {
	ID           int64     `json:"id" db:"id"`
	StoreID      int64     `json:"store_id" db:"store_id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	WorkDate     time.Time `json:"work_date" db:"work_date"`
	StartTime    string    `json:"start_time" db:"start_time"`
	EndTime      string    `json:"end_time" db:"end_time"`
	BreakMinutes int       `json:"break_minutes" db:"break_minutes"`
	IsCanceled   bool      `json:"is_canceled" db:"is_canceled"`
	Status       string    `json:"status" db:"status"`
}

// ChangeRequest представляет заявку на изменение смены
type ChangeRequest struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	StoreID     int64      `json:"store_id" db:"store_id"`
	ShiftID     int64      `json:"shift_id" db:"shift_id"`
	RequesterID int64      `json:"requester_id" db:"requester_id"`
	Type        string     `json:"type" db:"type"`
	Status      string     `json:"status" db:"status"`
	Reason      string     `json:"reason,omitempty" db:"reason"`
	ReviewerID  *int64     `json:"reviewer_id,omitempty" db:"reviewer_id"`
	ReviewNote  *string    `json:"review_note,omitempty" db:"review_note"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	EffectiveAt *time.Time `json:"effective_at,omitempty" db:"effective_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	// Типоспецифичные поля; заполняются только для соответствующего типа
	ProposedStartTime    *string `json:"proposed_start_time,omitempty" db:"proposed_start_time"`
	ProposedEndTime      *string `json:"proposed_end_time,omitempty" db:"proposed_end_time"`
	ProposedBreakMinutes *int    `json:"proposed_break_minutes,omitempty" db:"proposed_break_minutes"`
	TargetShiftID        *int64  `json:"target_shift_id,omitempty" db:"target_shift_id"`
}

// Candidate представляет кандидатуру на подмену по COVER-заявке
type Candidate struct {
	ID        uuid.UUID `json:"id" db:"id"`
	RequestID uuid.UUID `json:"request_id" db:"request_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Note      string    `json:"note,omitempty" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Notification представляет уведомление для отложенной доставки
type Notification struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	StoreID   int64          `json:"store_id" db:"store_id"`
	UserID    int64          `json:"user_id" db:"user_id"`
	Type      string         `json:"type" db:"type"`
	Title     string         `json:"title" db:"title"`
	Message   string         `json:"message" db:"message"`
	Payload   map[string]any `json:"payload,omitempty" db:"payload"`
	IsRead    bool           `json:"is_read" db:"is_read"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// Expired сообщает, устарело ли уведомление к моменту now.
// Вычисляется на чтении, в базе флаг не хранится.
func (n Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && !now.Before(*n.ExpiresAt)
}

// AuditRecord представляет запись аудита "до/после" для одной мутации
type AuditRecord struct {
	StoreID     int64  `json:"store_id"`
	ActorID     int64  `json:"actor_id"`
	Action      string `json:"action"`
	EntityType  string `json:"entity_type"`
	EntityID    string `json:"entity_id"`
	BeforeState any    `json:"before_state,omitempty"`
	AfterState  any    `json:"after_state,omitempty"`
}
