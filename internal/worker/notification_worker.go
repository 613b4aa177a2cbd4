package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/taskflow-service/internal/events"
)

const defaultQueueSize = 256

// EventHandler consumes events off the request path.
type EventHandler interface {
	EventTypes() []events.EventType
	Handle(ctx context.Context, event events.Event) error
}

// NotificationWorker moves event handling onto a background goroutine so
// publishing never blocks a request.
type NotificationWorker struct {
	handler EventHandler
	logger  *zap.Logger
	queue   chan events.Event
	done    chan struct{}
	stop    sync.Once
	wg      sync.WaitGroup
}

// NewNotificationWorker builds a worker with a bounded queue.
func NewNotificationWorker(handler EventHandler, logger *zap.Logger, queueSize int) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &NotificationWorker{
		handler: handler,
		logger:  logger,
		queue:   make(chan events.Event, queueSize),
		done:    make(chan struct{}),
	}
}

// Register subscribes the worker to every event its handler wants.
func (w *NotificationWorker) Register(dispatcher events.Dispatcher) {
	if dispatcher == nil || w.handler == nil {
		return
	}
	for _, eventType := range w.handler.EventTypes() {
		dispatcher.Subscribe(eventType, w.enqueue)
	}
}

// Start runs the consumer loop until ctx is cancelled or Stop is called.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case event := <-w.queue:
				w.handle(ctx, event)
			case <-ctx.Done():
				w.drain(context.Background())
				return
			case <-w.done:
				w.drain(ctx)
				return
			}
		}
	}()
}

// Stop signals the loop, waits for queued events to be handled and returns.
func (w *NotificationWorker) Stop() {
	w.stop.Do(func() { close(w.done) })
	w.wg.Wait()
}

func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	select {
	case <-w.done:
		return nil
	default:
	}
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full; dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
	}
	return nil
}

func (w *NotificationWorker) drain(ctx context.Context) {
	for {
		select {
		case event := <-w.queue:
			w.handle(ctx, event)
		default:
			return
		}
	}
}

func (w *NotificationWorker) handle(ctx context.Context, event events.Event) {
	if err := w.handler.Handle(ctx, event); err != nil {
		w.logger.Warn("notification failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}
