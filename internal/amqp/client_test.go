package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{70, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"amqp closed", fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	if client.isCircuitOpen() {
		t.Fatal("circuit should start closed")
	}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit should open after max failures")
	}

	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if client.isCircuitOpen() {
		t.Fatal("circuit should go half-open after the timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", client.state)
	}

	// One failure while half-open reopens immediately.
	client.recordFailure()
	if !client.isCircuitOpen() {
		t.Fatal("half-open failure should reopen the circuit")
	}

	client.recordSuccess()
	if client.isCircuitOpen() {
		t.Fatal("success should close the circuit")
	}
	if atomic.LoadInt64(&client.failureCount) != 0 {
		t.Fatal("success should reset the failure count")
	}
}

func TestClient_PublishExpenseSync_Guards(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now()
	err := client.PublishExpenseSync(context.Background(), 123, 42, 1)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("PublishExpenseSync() error = %v, want ErrCircuitOpen", err)
	}

	client.recordSuccess()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.PublishExpenseSync(ctx, 123, 42, 1); err != context.Canceled {
		t.Fatalf("PublishExpenseSync() error = %v, want context.Canceled", err)
	}
}

type fakeDelivery struct {
	acked, nacked, requeued bool
}

func (f *fakeDelivery) Ack(bool) error { f.acked = true; return nil }
func (f *fakeDelivery) Nack(_, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func TestProcessDelivery(t *testing.T) {
	okHandler := func(context.Context, *ExpenseSyncMessage) error { return nil }
	failHandler := func(context.Context, *ExpenseSyncMessage) error { return errors.New("sheet down") }

	tests := []struct {
		name         string
		body         string
		handler      Handler
		wantAck      bool
		wantRequeued bool
	}{
		{"success", `{"id":7,"account_id":1,"version":1}`, okHandler, true, false},
		{"bad json dropped", `{"id":"x"}`, okHandler, false, false},
		{"missing id dropped", `{"version":1}`, okHandler, false, false},
		{"handler failure requeued", `{"id":7,"version":1}`, failHandler, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDelivery{}
			processDelivery(context.Background(), d, []byte(tt.body), tt.handler)
			if d.acked != tt.wantAck {
				t.Errorf("acked = %v, want %v", d.acked, tt.wantAck)
			}
			if !tt.wantAck && !d.nacked {
				t.Errorf("expected a nack")
			}
			if d.requeued != tt.wantRequeued {
				t.Errorf("requeued = %v, want %v", d.requeued, tt.wantRequeued)
			}
		})
	}
}

func TestExpenseSyncMessage_JSON(t *testing.T) {
	msg := &ExpenseSyncMessage{
		ID:        12345,
		AccountID: 42,
		Version:   1,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if !strings.Contains(string(body), `"account_id":42`) {
		t.Fatalf("ToJSON() = %s, missing account_id", body)
	}

	parsed, err := ExpenseSyncMessageFromJSON(body)
	if err != nil {
		t.Fatalf("ExpenseSyncMessageFromJSON() error = %v", err)
	}
	if parsed.ID != msg.ID || parsed.AccountID != msg.AccountID || parsed.Version != msg.Version {
		t.Fatalf("parsed = %+v, want %+v", parsed, msg)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestNewExpenseSyncMessage(t *testing.T) {
	msg := NewExpenseSyncMessage(5, 42, 1)
	if msg.ID != 5 || msg.AccountID != 42 || msg.Version != 1 {
		t.Fatalf("NewExpenseSyncMessage() = %+v", msg)
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Fatal("Timestamp should be recent")
	}
}
