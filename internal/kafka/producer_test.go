package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// fakeWriter answers every Produce with a delivery report on its events
// channel, failing the keys listed in fail
type fakeWriter struct {
	mu       sync.Mutex
	events   chan kafka.Event
	produced []*kafka.Message
	fail     map[string]bool
	flushed  []int
	pending  int
	closed   bool
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{events: make(chan kafka.Event, 16), fail: map[string]bool{}}
}

func (w *fakeWriter) Produce(msg *kafka.Message, _ chan kafka.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.produced = append(w.produced, msg)
	report := *msg
	if w.fail[string(msg.Key)] {
		report.TopicPartition.Error = errors.New("broker unreachable")
	}
	w.events <- &report
	return nil
}

func (w *fakeWriter) Events() chan kafka.Event { return w.events }

func (w *fakeWriter) Flush(timeoutMs int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushed = append(w.flushed, timeoutMs)
	return w.pending
}

func (w *fakeWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.events)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProducer_PublishTracksDelivery(t *testing.T) {
	w := newFakeWriter()
	w.fail["@cid"] = true
	p := newProducer(w, &Config{}, quietLogger())

	for _, key := range []string{"@amy", "@bob", "@cid"} {
		if err := p.Publish("follow-events", key, map[string]string{"followee": key}); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Unexpected close error: %v", err)
	}
	<-p.reportsDone

	st := p.Stats()
	if st.Queued != 3 || st.Delivered != 2 || st.Failed != 1 || st.Pending() != 0 {
		t.Errorf("Unexpected stats %+v", st)
	}

	h := p.Health()
	if h["status"] != "failing" || h["error"] != "broker unreachable" || h["failed"] != "1" {
		t.Errorf("Expected failing health after a failed report, got %v", h)
	}

	var body map[string]string
	if err := json.Unmarshal(w.produced[0].Value, &body); err != nil || body["followee"] != "@amy" {
		t.Errorf("Expected JSON value, got %s (%v)", w.produced[0].Value, err)
	}
	if *w.produced[0].TopicPartition.Topic != "follow-events" || string(w.produced[0].Key) != "@amy" {
		t.Errorf("Unexpected message %+v", w.produced[0].TopicPartition)
	}
}

func TestProducer_HealthRecovers(t *testing.T) {
	w := newFakeWriter()
	w.fail["@amy"] = true
	p := newProducer(w, &Config{}, quietLogger())

	_ = p.Publish("follow-events", "@amy", "x")
	_ = p.Publish("follow-events", "@bob", "y")
	w.Close()
	<-p.reportsDone

	if h := p.Health(); h["status"] != "up" {
		t.Errorf("Expected a good report to clear failing, got %v", h)
	}
}

func TestProducer_CloseReportsUndelivered(t *testing.T) {
	w := newFakeWriter()
	w.pending = 2
	p := newProducer(w, &Config{}, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := p.Close(ctx); err == nil {
		t.Error("Expected an error for undelivered events")
	}
	if len(w.flushed) != 1 || w.flushed[0] > 500 || w.flushed[0] <= 0 {
		t.Errorf("Expected flush bounded by the context deadline, got %v", w.flushed)
	}
}
