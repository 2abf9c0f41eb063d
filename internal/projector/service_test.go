package projector

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/ariefcatur/go-geoprice/internal/kafka"
	"github.com/ariefcatur/go-geoprice/internal/logging"
	"github.com/ariefcatur/go-geoprice/internal/orders"
	"github.com/ariefcatur/go-geoprice/internal/redisx"
)

func event(t *testing.T, id, typ string, st orders.Status) (kafkago.Message, string) {
	t.Helper()
	p := orders.OrderStatusPayload{
		OrderID: "o-1", SessionID: "cs_1", ProductID: "p-1", Status: st,
		Amount: "118.49", Currency: "GBP", CustomerCountry: "GB",
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	env := orders.Envelope{EventID: id, EventType: typ, EventVersion: 1, Payload: kafkax.MustMarshal(p)}
	b, err := json.Marshal(p)
	require.NoError(t, err)
	return kafkago.Message{Topic: orders.TopicOrderPaid, Key: orders.PartitionKey("cs_1"), Value: kafkax.MustMarshal(env)}, string(b)
}

func newService() (*Service, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	return &Service{Redis: db, Log: logging.Discard()}, mock
}

func TestPaidEventOverwritesStatus(t *testing.T) {
	svc, mock := newService()
	m, cached := event(t, "evt-1", orders.EventOrderPaid, orders.StatusPaid)

	mock.ExpectSetNX("dedup:projector:evt-1", "1", redisx.TTLDedup).SetVal(true)
	mock.ExpectSet("order_status:cs_1", cached, redisx.TTLStatusCache).SetVal("OK")

	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatedEventDoesNotOverwrite(t *testing.T) {
	svc, mock := newService()
	m, cached := event(t, "evt-2", orders.EventOrderCreated, orders.StatusPending)

	mock.ExpectSetNX("dedup:projector:evt-2", "1", redisx.TTLDedup).SetVal(true)
	mock.ExpectSetNX("order_status:cs_1", cached, redisx.TTLStatusCache).SetVal(false)

	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDuplicateEventSkipped(t *testing.T) {
	svc, mock := newService()
	m, _ := event(t, "evt-1", orders.EventOrderPaid, orders.StatusPaid)

	mock.ExpectSetNX("dedup:projector:evt-1", "1", redisx.TTLDedup).SetVal(false)

	require.NoError(t, svc.HandleOrderEvent(context.Background(), m))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteFailureReleasesDedup(t *testing.T) {
	svc, mock := newService()
	m, cached := event(t, "evt-3", orders.EventOrderPaid, orders.StatusPaid)

	mock.ExpectSetNX("dedup:projector:evt-3", "1", redisx.TTLDedup).SetVal(true)
	mock.ExpectSet("order_status:cs_1", cached, redisx.TTLStatusCache).SetErr(errors.New("OOM"))
	mock.ExpectDel("dedup:projector:evt-3").SetVal(1)

	require.Error(t, svc.HandleOrderEvent(context.Background(), m))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUndecodableAndForeignEventsDropped(t *testing.T) {
	svc, mock := newService()

	require.NoError(t, svc.HandleOrderEvent(context.Background(), kafkago.Message{Value: []byte("{")}))

	env := orders.Envelope{EventID: "evt-9", EventType: "StockReserved", Payload: json.RawMessage(`{}`)}
	require.NoError(t, svc.HandleOrderEvent(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)}))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDedupErrorIsRetried(t *testing.T) {
	svc, mock := newService()
	m, _ := event(t, "evt-4", orders.EventOrderPaid, orders.StatusPaid)
	mock.ExpectSetNX("dedup:projector:evt-4", "1", redisx.TTLDedup).SetErr(errors.New("conn refused"))

	assert.Error(t, svc.HandleOrderEvent(context.Background(), m))
}
