package redisbroker

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tapdine/ordersync-backend/pkg/realtime"
)

// testClient is shared by all tests in this package.
var testClient *redis.Client

// TestMain sets up and tears down the test Redis container. Short mode skips
// the container; the tests then skip themselves.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	log.Println("Setting up Redis container...")
	container, err := tcredis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("could not start redis container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx)
	if err != nil {
		log.Fatalf("could not get connection string: %v", err)
	}

	opts, err := redis.ParseURL(connStr)
	if err != nil {
		log.Fatalf("could not parse connection string: %v", err)
	}
	testClient = redis.NewClient(opts)

	code := m.Run()

	_ = testClient.Close()
	if err := container.Terminate(ctx); err != nil {
		log.Printf("could not terminate redis container: %v", err)
	}
	os.Exit(code)
}

func requireClient(t *testing.T) *redis.Client {
	t.Helper()
	if testClient == nil {
		t.Skip("skipping integration test: no redis container")
	}
	return testClient
}

// envelopeSink collects everything the subscriber hands over.
type envelopeSink struct {
	mu        sync.Mutex
	envelopes []realtime.Envelope
	notify    chan struct{}
}

func newEnvelopeSink() *envelopeSink {
	return &envelopeSink{notify: make(chan struct{}, 16)}
}

func (s *envelopeSink) Broadcast(env realtime.Envelope) error {
	s.mu.Lock()
	s.envelopes = append(s.envelopes, env)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
	return nil
}

func (s *envelopeSink) all() []realtime.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]realtime.Envelope, len(s.envelopes))
	copy(out, s.envelopes)
	return out
}

func TestBroker_Ping(t *testing.T) {
	client := requireClient(t)
	broker := New(client, "ordersync:test:ping", slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.NoError(t, broker.Ping(context.Background()))
}

func TestBroker_PublishReachesSubscriber(t *testing.T) {
	client := requireClient(t)
	broker := New(client, "ordersync:test:events", slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := newEnvelopeSink()
	go func() { _ = broker.Subscribe(ctx, sink) }()

	// Publishing before the subscription is established would silently miss;
	// wait until Redis reports a subscriber on the channel.
	require.Eventually(t, func() bool {
		counts, err := client.PubSubNumSub(ctx, "ordersync:test:events").Result()
		return err == nil && counts["ordersync:test:events"] > 0
	}, 5*time.Second, 50*time.Millisecond)

	want := realtime.Envelope{
		Event:   realtime.EventOrderStatusUpdated,
		Room:    realtime.OrderRoom("ord-1"),
		Payload: map[string]any{"status": "READY"},
	}
	require.NoError(t, broker.Broadcast(want))

	select {
	case <-sink.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber never received the envelope")
	}

	got := sink.all()
	require.Len(t, got, 1)
	assert.Equal(t, want.Event, got[0].Event)
	assert.Equal(t, want.Room, got[0].Room)
}

func TestBroker_SubscriberSkipsMalformedPayloads(t *testing.T) {
	client := requireClient(t)
	broker := New(client, "ordersync:test:malformed", slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := newEnvelopeSink()
	go func() { _ = broker.Subscribe(ctx, sink) }()

	require.Eventually(t, func() bool {
		counts, err := client.PubSubNumSub(ctx, "ordersync:test:malformed").Result()
		return err == nil && counts["ordersync:test:malformed"] > 0
	}, 5*time.Second, 50*time.Millisecond)

	// Garbage first, then a valid envelope: the loop must survive the former
	// and still deliver the latter.
	require.NoError(t, client.Publish(ctx, "ordersync:test:malformed", "{not json").Err())
	require.NoError(t, broker.Broadcast(realtime.Envelope{
		Event: realtime.EventOrderCreated,
		Room:  realtime.OrderRoom("ord-2"),
	}))

	select {
	case <-sink.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber never received the valid envelope")
	}

	got := sink.all()
	require.Len(t, got, 1)
	assert.Equal(t, realtime.EventOrderCreated, got[0].Event)
}
