package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleShift() Shift {
	return Shift{
		ID:           100,
		StoreID:      1,
		UserID:       10,
		StartTime:    "09:00",
		EndTime:      "17:00",
		BreakMinutes: 30,
		Status:       ShiftPublished,
	}
}

func TestApplyTimeChange_KeepsBreakWhenUnproposed(t *testing.T) {
	shift := sampleShift()

	ApplyTimeChange(&shift, TimeChangePayload{StartTime: "10:00", EndTime: "18:00"})

	assert.Equal(t, "10:00", shift.StartTime)
	assert.Equal(t, "18:00", shift.EndTime)
	assert.Equal(t, 30, shift.BreakMinutes, "перерыв не был предложен и должен сохраниться")
}

func TestApplyTimeChange_OverridesBreakWhenProposed(t *testing.T) {
	shift := sampleShift()
	breakMins := 45

	ApplyTimeChange(&shift, TimeChangePayload{StartTime: "10:00", EndTime: "18:00", BreakMinutes: &breakMins})

	assert.Equal(t, 45, shift.BreakMinutes)
}

func TestApplyDrop_FlipsOnlyCanceledFlag(t *testing.T) {
	shift := sampleShift()
	want := shift
	want.IsCanceled = true

	ApplyDrop(&shift)

	assert.Equal(t, want, shift, "кроме is_canceled ни одно поле не меняется")
}

func TestApplyCover_ReassignsShift(t *testing.T) {
	shift := sampleShift()
	want := shift
	want.UserID = 55

	ApplyCover(&shift, 55)

	assert.Equal(t, want, shift)
}

func TestApplySwap_SwapsBothAssignees(t *testing.T) {
	a := sampleShift()
	b := sampleShift()
	b.ID = 200
	b.UserID = 20

	ApplySwap(&a, &b)

	assert.Equal(t, int64(20), a.UserID)
	assert.Equal(t, int64(10), b.UserID)

	// Повторный обмен возвращает исходное состояние
	ApplySwap(&a, &b)
	assert.Equal(t, int64(10), a.UserID)
	assert.Equal(t, int64(20), b.UserID)
}
