// models/effects.go
package models

// Чистые функции применения эффекта утвержденной заявки к смене.
// Транзакционная обвязка (блокировки, запись, аудит) живет в хранилище.

// ApplyTimeChange устанавливает предложенные границы смены.
// Перерыв меняется только если был предложен, иначе сохраняется прежний.
func ApplyTimeChange(s *Shift, p TimeChangePayload) {
	s.StartTime = p.StartTime
	s.EndTime = p.EndTime
	if p.BreakMinutes != nil {
		s.BreakMinutes = *p.BreakMinutes
	}
}

// ApplyDrop помечает смену отмененной; остальные поля не меняются
func ApplyDrop(s *Shift) {
	s.IsCanceled = true
}

// ApplyCover передает смену выбранному кандидату
func ApplyCover(s *Shift, chosenUserID int64) {
	s.UserID = chosenUserID
}

// ApplySwap меняет исполнителей двух смен местами
func ApplySwap(a, b *Shift) {
	a.UserID, b.UserID = b.UserID, a.UserID
}
