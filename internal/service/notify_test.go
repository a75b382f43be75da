package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whwan4570/Workhaja-sub000/internal/models"
	"go.uber.org/zap"
)

// fakeNotificationStore потокобезопасно собирает доставленные уведомления
type fakeNotificationStore struct {
	mu    sync.Mutex
	saved []models.Notification
	err   error
}

func (f *fakeNotificationStore) CreateNotifications(_ context.Context, ns []models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, ns...)
	return nil
}

func (f *fakeNotificationStore) delivered() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Notification(nil), f.saved...)
}

func testNotification(expiresAt *time.Time) models.Notification {
	return models.Notification{
		ID:        uuid.New(),
		StoreID:   1,
		UserID:    10,
		Type:      "request_created",
		Title:     "t",
		Message:   "m",
		ExpiresAt: expiresAt,
	}
}

func TestDispatcher_DeliversAfterEnqueue(t *testing.T) {
	store := &fakeNotificationStore{}
	d := NewDispatcher(store, zap.NewNop(), 8, time.Second)
	d.Start()

	d.Enqueue([]models.Notification{testNotification(nil), testNotification(nil)})
	d.Stop()

	assert.Len(t, store.delivered(), 2)
}

func TestDispatcher_DropsExpired(t *testing.T) {
	store := &fakeNotificationStore{}
	d := NewDispatcher(store, zap.NewNop(), 8, time.Second)
	d.Start()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	d.Enqueue([]models.Notification{testNotification(&past), testNotification(&future)})
	d.Stop()

	delivered := store.delivered()
	require.Len(t, delivered, 1)
	assert.Equal(t, future.Unix(), delivered[0].ExpiresAt.Unix())
}

func TestDispatcher_EnqueueNeverBlocks(t *testing.T) {
	store := &fakeNotificationStore{}
	// Диспетчер не запущен: очередь заполняется и переполняется
	d := NewDispatcher(store, zap.NewNop(), 1, time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			d.Enqueue([]models.Notification{testNotification(nil)})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue заблокировался на переполненной очереди")
	}
}

func TestDispatcher_StoreErrorIsSwallowed(t *testing.T) {
	store := &fakeNotificationStore{err: context.DeadlineExceeded}
	d := NewDispatcher(store, zap.NewNop(), 8, time.Second)
	d.Start()

	d.Enqueue([]models.Notification{testNotification(nil)})
	// Stop возвращается несмотря на ошибку доставки
	d.Stop()

	assert.Empty(t, store.delivered())
}

func TestDispatcher_StopWithoutStart(t *testing.T) {
	store := &fakeNotificationStore{}
	d := NewDispatcher(store, zap.NewNop(), 8, time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Stop()
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop завис без предшествующего Start")
	}
	assert.Empty(t, store.delivered())
}

func TestDispatcher_StopDrainsQueue(t *testing.T) {
	store := &fakeNotificationStore{}
	d := NewDispatcher(store, zap.NewNop(), 16, time.Second)

	for i := 0; i < 5; i++ {
		d.Enqueue([]models.Notification{testNotification(nil)})
	}
	d.Start()
	d.Stop()

	assert.Len(t, store.delivered(), 5)
}
