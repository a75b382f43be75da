// models/payload.go
package models

import "errors"

// Ошибки валидации типоспецифичной части заявки
var (
	ErrMissingTimes    = errors.New("proposed start and end times are required")
	ErrBadTimeFormat   = errors.New("time must be in HH:mm format")
	ErrBadTimeOrder    = errors.New("proposed end time must be after start time")
	ErrNegativeBreak   = errors.New("proposed break minutes must not be negative")
	ErrMissingTarget   = errors.New("target shift id is required")
	ErrUnknownType     = errors.New("unknown request type")
	ErrPayloadMismatch = errors.New("payload does not match request type")
)

// RequestPayload объединяет типоспецифичные данные заявки.
// Для каждого типа заявки допустима ровно одна реализация.
type RequestPayload interface {
	RequestType() string
	Validate() error
}

// TimeChangePayload содержит предлагаемые границы смены для TIME_CHANGE
type TimeChangePayload struct {
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	BreakMinutes *int   `json:"break_minutes,omitempty"`
}

func (p TimeChangePayload) RequestType() string { return TypeTimeChange }

func (p TimeChangePayload) Validate() error {
	if p.StartTime == "" || p.EndTime == "" {
		return ErrMissingTimes
	}
	if !ValidTimeOfDay(p.StartTime) || !ValidTimeOfDay(p.EndTime) {
		return ErrBadTimeFormat
	}
	// Формат фиксированной ширины, достаточно лексикографического сравнения
	if p.EndTime <= p.StartTime {
		return ErrBadTimeOrder
	}
	if p.BreakMinutes != nil && *p.BreakMinutes < 0 {
		return ErrNegativeBreak
	}
	return nil
}

// DropPayload — у DROP нет дополнительных данных
type DropPayload struct{}

func (DropPayload) RequestType() string { return TypeDrop }
func (DropPayload) Validate() error     { return nil }

// CoverPayload — у COVER нет дополнительных данных
type CoverPayload struct{}

func (CoverPayload) RequestType() string { return TypeCover }
func (CoverPayload) Validate() error     { return nil }

// SwapPayload содержит смену-партнера для SWAP
type SwapPayload struct {
	TargetShiftID int64 `json:"target_shift_id"`
}

func (p SwapPayload) RequestType() string { return TypeSwap }

func (p SwapPayload) Validate() error {
	if p.TargetShiftID <= 0 {
		return ErrMissingTarget
	}
	return nil
}

// ValidTimeOfDay проверяет строку времени формата HH:mm (00:00 — 23:59)
func ValidTimeOfDay(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[3]-'0')*10 + int(s[4]-'0')
	return hh < 24 && mm < 60
}

// Payload восстанавливает типизированное представление из хранимых полей заявки
func (r *ChangeRequest) Payload() RequestPayload {
	switch r.Type {
	case TypeTimeChange:
		p := TimeChangePayload{BreakMinutes: r.ProposedBreakMinutes}
		if r.ProposedStartTime != nil {
			p.StartTime = *r.ProposedStartTime
		}
		if r.ProposedEndTime != nil {
			p.EndTime = *r.ProposedEndTime
		}
		return p
	case TypeDrop:
		return DropPayload{}
	case TypeCover:
		return CoverPayload{}
	case TypeSwap:
		p := SwapPayload{}
		if r.TargetShiftID != nil {
			p.TargetShiftID = *r.TargetShiftID
		}
		return p
	default:
		return nil
	}
}

// ApplyPayload записывает типизированные данные в хранимые поля заявки
func (r *ChangeRequest) ApplyPayload(p RequestPayload) error {
	if p == nil {
		return ErrUnknownType
	}
	if p.RequestType() != r.Type {
		return ErrPayloadMismatch
	}
	switch v := p.(type) {
	case TimeChangePayload:
		r.ProposedStartTime = &v.StartTime
		r.ProposedEndTime = &v.EndTime
		r.ProposedBreakMinutes = v.BreakMinutes
	case SwapPayload:
		r.TargetShiftID = &v.TargetShiftID
	}
	return nil
}
