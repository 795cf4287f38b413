package observer

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	name   string
	mu     sync.Mutex
	events []InteractionEvent
}

func (r *recordingObserver) OnEvent(ctx context.Context, event InteractionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingObserver) GetObserverName() string { return r.name }

type panickingObserver struct{}

func (panickingObserver) OnEvent(ctx context.Context, event InteractionEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string                               { return "panicking" }

func TestEventPublisher_NotifiesAndUnsubscribes(t *testing.T) {
	publisher := NewEventPublisher()
	first := &recordingObserver{name: "first"}
	second := &recordingObserver{name: "second"}

	publisher.Subscribe(panickingObserver{})
	publisher.Subscribe(first)
	publisher.Subscribe(second)

	publisher.NotifyObservers(context.Background(), InteractionEvent{EventType: InteractionStarted, Operation: "classifyImage"})
	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.False(t, first.events[0].Timestamp.IsZero())

	publisher.Unsubscribe(second)
	publisher.NotifyObservers(context.Background(), InteractionEvent{EventType: InteractionReset})
	assert.Len(t, first.events, 2)
	assert.Len(t, second.events, 1)
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	obs := NewLoggingObserver(log)
	obs.OnEvent(context.Background(), InteractionEvent{
		EventType:    InteractionFailed,
		Operation:    "translateText",
		UserID:       "u1",
		Duration:     120 * time.Millisecond,
		ErrorType:    "invocation",
		ErrorMessage: "quota exceeded",
	})

	out := buf.String()
	assert.Contains(t, out, `"operation":"translateText"`)
	assert.Contains(t, out, `"error":"quota exceeded"`)
	assert.Contains(t, out, `"duration_ms":120`)
	assert.Contains(t, out, `"level":"warning"`)
}

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewMetricsObserver(reg)
	require.NoError(t, err)

	ctx := context.Background()
	obs.OnEvent(ctx, InteractionEvent{EventType: InteractionStarted, Operation: "detectText"})
	obs.OnEvent(ctx, InteractionEvent{EventType: InteractionStarted, Operation: "detectText"})
	obs.OnEvent(ctx, InteractionEvent{EventType: InteractionCompleted, Operation: "detectText", Duration: time.Second})
	obs.OnEvent(ctx, InteractionEvent{EventType: InteractionFailed, Operation: "detectText", ErrorType: "upload"})

	assert.Equal(t, 2.0, testutil.ToFloat64(obs.started.WithLabelValues("detectText")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.completed.WithLabelValues("detectText")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.failed.WithLabelValues("detectText", "upload")))

	_, err = NewMetricsObserver(reg)
	assert.Error(t, err, "registering twice must fail")
}
