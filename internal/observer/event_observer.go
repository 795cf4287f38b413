package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// InteractionEvent represents one step of an AI interaction
type InteractionEvent struct {
	EventType    EventType     `json:"event_type"`
	Timestamp    time.Time     `json:"timestamp"`
	Operation    string        `json:"operation"`
	UserID       string        `json:"user_id,omitempty"`
	Duration     time.Duration `json:"duration"`
	Success      bool          `json:"success"`
	ErrorType    string        `json:"error_type,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// EventType represents the type of interaction event
type EventType string

const (
	// InteractionStarted when the controller enters the loading state
	InteractionStarted EventType = "interaction_started"
	// InteractionCompleted when a result was stored
	InteractionCompleted EventType = "interaction_completed"
	// InteractionFailed when an error message was stored
	InteractionFailed EventType = "interaction_failed"
	// InteractionReset when state was cleared
	InteractionReset EventType = "interaction_reset"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event InteractionEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event InteractionEvent)
}

// LoggingObserver logs interaction events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles interaction events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event InteractionEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"operation":  event.Operation,
		"success":    event.Success,
	}
	if event.UserID != "" {
		fields["user_id"] = event.UserID
	}
	if event.Duration > 0 {
		fields["duration_ms"] = event.Duration.Milliseconds()
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
		fields["error_type"] = event.ErrorType
	}

	switch event.EventType {
	case InteractionStarted:
		o.logger.WithFields(fields).Debug("AI interaction started")
	case InteractionCompleted:
		o.logger.WithFields(fields).Info("AI interaction completed")
	case InteractionFailed:
		o.logger.WithFields(fields).Warn("AI interaction failed")
	case InteractionReset:
		o.logger.WithFields(fields).Debug("AI interaction state reset")
	default:
		o.logger.WithFields(fields).Info("AI interaction event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event. Observers run
// synchronously in subscription order; a panicking observer is logged and
// skipped.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event InteractionEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for _, obs := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}()
	}
}
