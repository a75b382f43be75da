package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidTimeOfDay(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"00:00", true},
		{"09:30", true},
		{"23:59", true},
		{"24:00", false},
		{"12:60", false},
		{"9:30", false},
		{"09-30", false},
		{"09:3a", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidTimeOfDay(tt.value), "value %q", tt.value)
	}
}

func TestTimeChangePayload_Validate(t *testing.T) {
	breakMins := 30
	negative := -5

	tests := []struct {
		name    string
		payload TimeChangePayload
		wantErr error
	}{
		{
			name:    "valid without break",
			payload: TimeChangePayload{StartTime: "10:00", EndTime: "18:00"},
		},
		{
			name:    "valid with break",
			payload: TimeChangePayload{StartTime: "10:00", EndTime: "18:00", BreakMinutes: &breakMins},
		},
		{
			name:    "missing times",
			payload: TimeChangePayload{},
			wantErr: ErrMissingTimes,
		},
		{
			name:    "end before start",
			payload: TimeChangePayload{StartTime: "18:00", EndTime: "10:00"},
			wantErr: ErrBadTimeOrder,
		},
		{
			name:    "end equals start",
			payload: TimeChangePayload{StartTime: "10:00", EndTime: "10:00"},
			wantErr: ErrBadTimeOrder,
		},
		{
			name:    "bad format",
			payload: TimeChangePayload{StartTime: "10.00", EndTime: "18:00"},
			wantErr: ErrBadTimeFormat,
		},
		{
			name:    "negative break",
			payload: TimeChangePayload{StartTime: "10:00", EndTime: "18:00", BreakMinutes: &negative},
			wantErr: ErrNegativeBreak,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSwapPayload_Validate(t *testing.T) {
	assert.NoError(t, SwapPayload{TargetShiftID: 7}.Validate())
	assert.ErrorIs(t, SwapPayload{}.Validate(), ErrMissingTarget)
}

func TestChangeRequest_PayloadRoundTrip(t *testing.T) {
	breakMins := 15
	req := &ChangeRequest{Type: TypeTimeChange}
	err := req.ApplyPayload(TimeChangePayload{StartTime: "09:00", EndTime: "17:00", BreakMinutes: &breakMins})
	require.NoError(t, err)

	p, ok := req.Payload().(TimeChangePayload)
	require.True(t, ok)
	assert.Equal(t, "09:00", p.StartTime)
	assert.Equal(t, "17:00", p.EndTime)
	require.NotNil(t, p.BreakMinutes)
	assert.Equal(t, 15, *p.BreakMinutes)
}

func TestChangeRequest_ApplyPayloadMismatch(t *testing.T) {
	req := &ChangeRequest{Type: TypeDrop}
	err := req.ApplyPayload(SwapPayload{TargetShiftID: 3})
	assert.ErrorIs(t, err, ErrPayloadMismatch)

	err = req.ApplyPayload(nil)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestNotification_Expired(t *testing.T) {
	now := time.Now()
	soon := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.False(t, Notification{}.Expired(now), "no expiry set")
	assert.False(t, Notification{ExpiresAt: &soon}.Expired(now))
	assert.True(t, Notification{ExpiresAt: &past}.Expired(now))
	assert.True(t, Notification{ExpiresAt: &now}.Expired(now), "boundary counts as expired")
}
