package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/ariefcatur/go-geoprice/internal/logging"
)

func testConsumer(workers int) *Consumer {
	return &Consumer{log: logging.Discard(), workers: workers, backoff: time.Millisecond, maxBackoff: 4 * time.Millisecond}
}

func TestHandleRetriesUntilSuccess(t *testing.T) {
	c := testConsumer(1)
	var calls int
	h := func(ctx context.Context, m kafka.Message) error {
		calls++
		if calls < 4 {
			return errors.New("redis: connection refused")
		}
		return nil
	}

	ok := c.handle(context.Background(), h, kafka.Message{Topic: "order.paid", Offset: 7})
	assert.True(t, ok)
	assert.Equal(t, 4, calls)
}

func TestHandleStopsOnCancel(t *testing.T) {
	c := testConsumer(1)
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	h := func(ctx context.Context, m kafka.Message) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("still failing")
	}

	done := make(chan bool, 1)
	go func() { done <- c.handle(ctx, h, kafka.Message{}) }()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("handle did not return after cancel")
	}
}

func TestSlotIsStablePerKey(t *testing.T) {
	c := testConsumer(8)
	assert.Equal(t, c.slot([]byte("cs_1")), c.slot([]byte("cs_1")))
	assert.Equal(t, 0, c.slot(nil))
	for _, k := range []string{"a", "b", "cs_test_1", "cs_test_2"} {
		s := c.slot([]byte(k))
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, 8)
	}
}
