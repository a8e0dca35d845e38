package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-pizzeria-management/models"
)

type recordingSink struct {
	mu     sync.Mutex
	name   string
	err    error
	events []models.Event
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(_ context.Context, event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) received() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Event(nil), s.events...)
}

func sampleOrder() *models.Order {
	return &models.Order{ID: primitive.NewObjectID(), Number: "007", Status: models.StatusAwaitingPreparation}
}

func TestFanoutDeliversToEverySinkAndSwallowsErrors(t *testing.T) {
	log, hook := test.NewNullLogger()
	ok := &recordingSink{name: "ok"}
	broken := &recordingSink{name: "broken", err: errors.New("connection refused")}
	fanout := NewFanout(log, time.Second, ok, broken)

	ctx, cancel := context.WithCancel(context.Background())
	event := NewEvent(models.EventNewOrder, "", sampleOrder(), nil)
	fanout.Publish(ctx, event)
	cancel()
	fanout.Wait()

	require.Len(t, ok.received(), 1)
	assert.Equal(t, event.ID, ok.received()[0].ID)
	require.Len(t, broken.received(), 1)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "broken", hook.LastEntry().Data["sink"])
}

func TestNewEventCarriesOrderIdentity(t *testing.T) {
	order := sampleOrder()
	event := NewEvent(models.EventNewOrderAlert, models.GroupPreparation, order, map[string]int{"items": 2})

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, order.ID.Hex(), event.OrderID)
	assert.Equal(t, "007", event.OrderNumber)
	assert.Equal(t, models.GroupPreparation, event.Group)
	assert.False(t, event.Timestamp.IsZero())
}

func groupSize(h *Hub, group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.groups[group] {
			n++
		}
	}
	return n
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event models.Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestHubScopesGroupEvents(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := NewHub(log)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, "listener")
	}))
	defer srv.Close()
	defer hub.Close()

	counter := dial(t, srv)
	kitchen := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, kitchen.WriteJSON(Command{Action: "join", Group: models.GroupPreparation}))
	require.Eventually(t, func() bool { return groupSize(hub, models.GroupPreparation) == 1 }, 2*time.Second, 10*time.Millisecond)

	order := sampleOrder()
	require.NoError(t, hub.Send(context.Background(), NewEvent(models.EventNewOrderAlert, models.GroupPreparation, order, nil)))
	require.NoError(t, hub.Send(context.Background(), NewEvent(models.EventNewOrder, "", order, nil)))

	assert.Equal(t, models.EventNewOrderAlert, readEvent(t, kitchen).Type)
	assert.Equal(t, models.EventNewOrder, readEvent(t, kitchen).Type)
	// the group alert never reached the counter screen
	assert.Equal(t, models.EventNewOrder, readEvent(t, counter).Type)

	require.NoError(t, kitchen.WriteJSON(Command{Action: "leave", Group: models.GroupPreparation}))
	require.Eventually(t, func() bool { return groupSize(hub, models.GroupPreparation) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubIgnoresUnknownGroups(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := NewHub(log)
	c := &client{send: make(chan []byte, 1), groups: make(map[string]bool)}

	hub.apply(c, Command{Action: "join", Group: "managers"})
	assert.Empty(t, c.groups)
	hub.apply(c, Command{Action: "join", Group: models.GroupDelivery})
	assert.True(t, c.groups[models.GroupDelivery])
}

func TestHubDropsWhenClientQueueFull(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := NewHub(log)
	c := &client{send: make(chan []byte, 1), groups: make(map[string]bool)}
	hub.register(c)

	hub.deliver("", []byte("first"))
	hub.deliver("", []byte("second"))

	assert.Len(t, c.send, 1)
	assert.Equal(t, "first", string(<-c.send))
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestAMQPPublisherRoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	pub := &AMQPPublisher{ch: ch, exchange: "orders.events"}

	event := NewEvent(models.EventStatusUpdated, models.GroupExpedition, sampleOrder(), nil)
	require.NoError(t, pub.Send(context.Background(), event))

	assert.Equal(t, "orders.events", ch.exchange)
	assert.Equal(t, "order.status_updated", ch.key)
	assert.Equal(t, event.ID, ch.msg.MessageId)
	assert.Equal(t, "application/json", ch.msg.ContentType)

	var decoded models.Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, event.OrderID, decoded.OrderID)
}

func TestRedisRelaySkipsOwnMessages(t *testing.T) {
	log, _ := test.NewNullLogger()
	local := &recordingSink{name: "local"}
	relay := &RedisRelay{origin: "self", local: local, log: log}

	event := NewEvent(models.EventOrderCancelled, "", sampleOrder(), nil)
	own, err := json.Marshal(relayEnvelope{Origin: "self", Event: event})
	require.NoError(t, err)
	other, err := json.Marshal(relayEnvelope{Origin: "other", Event: event})
	require.NoError(t, err)

	relay.handle(context.Background(), string(own))
	relay.handle(context.Background(), "not json")
	relay.handle(context.Background(), string(other))

	require.Len(t, local.received(), 1)
	assert.Equal(t, event.ID, local.received()[0].ID)
}
