// service/notify.go
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/whwan4570/Workhaja-sub000/internal/models"
	"go.uber.org/zap"
)

// NotificationStore сохраняет уведомления для внешней доставки
type NotificationStore interface {
	CreateNotifications(ctx context.Context, ns []models.Notification) error
}

// Dispatcher доставляет уведомления после коммита рабочей транзакции.
// Очередь буферизована; при переполнении пачка отбрасывается с журналированием,
// отправитель никогда не блокируется и не получает ошибку.
type Dispatcher struct {
	store   NotificationStore
	logger  *zap.Logger
	queue   chan []models.Notification
	timeout time.Duration
	now     func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	done      chan struct{}
}

func NewDispatcher(store NotificationStore, logger *zap.Logger, bufferSize int, timeout time.Duration) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		store:   store,
		logger:  logger,
		queue:   make(chan []models.Notification, bufferSize),
		timeout: timeout,
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

// Start запускает горутину доставки
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		d.started.Store(true)
		go d.run()
	})
}

// Enqueue ставит пачку уведомлений в очередь без блокировки
func (d *Dispatcher) Enqueue(ns []models.Notification) {
	if len(ns) == 0 {
		return
	}
	select {
	case d.queue <- ns:
	default:
		d.logger.Warn("очередь уведомлений переполнена, пачка отброшена",
			zap.Int("count", len(ns)))
	}
}

// Stop закрывает очередь и дожидается доставки оставшихся пачек.
// Безопасен и без предшествующего Start: горутины нет, ждать нечего.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
	})
	if !d.started.Load() {
		return
	}
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for batch := range d.queue {
		d.deliver(batch)
	}
}

// deliver сохраняет пачку, отбрасывая устаревшие к моменту доставки уведомления
func (d *Dispatcher) deliver(batch []models.Notification) {
	now := d.now()
	fresh := batch[:0]
	for _, n := range batch {
		if n.Expired(now) {
			d.logger.Info("уведомление устарело и не будет доставлено",
				zap.String("notification_id", n.ID.String()),
				zap.Int64("user_id", n.UserID))
			continue
		}
		fresh = append(fresh, n)
	}
	if len(fresh) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.store.CreateNotifications(ctx, fresh); err != nil {
		d.logger.Warn("не удалось доставить уведомления",
			zap.Int("count", len(fresh)), zap.Error(err))
	}
}
