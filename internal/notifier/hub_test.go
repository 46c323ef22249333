package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	return hub, cancel
}

func TestHubBroadcastsToAllClients(t *testing.T) {
	hub, cancel := runHub(t)
	defer cancel()

	a := &client{hub: hub, send: make(chan []byte, 1)}
	b := &client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- a
	hub.register <- b

	hub.Broadcast([]byte("hello"))

	for _, c := range []*client{a, b} {
		select {
		case msg := <-c.send:
			assert.Equal(t, []byte("hello"), msg)
		case <-time.After(time.Second):
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestHubDropsSlowClients(t *testing.T) {
	hub, cancel := runHub(t)
	defer cancel()

	slow := &client{hub: hub, send: make(chan []byte)} // unbuffered, never read
	hub.register <- slow

	hub.Broadcast([]byte("one"))

	// The hub closes the send channel when it drops a client.
	select {
	case _, open := <-slow.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("slow client was not dropped")
	}
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	hub, cancel := runHub(t)
	defer cancel()

	c := &client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- c
	hub.unregister <- c
	hub.unregister <- c

	// Hub still serves remaining clients.
	other := &client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- other
	hub.Broadcast([]byte("still alive"))

	select {
	case msg := <-other.send:
		assert.Equal(t, []byte("still alive"), msg)
	case <-time.After(time.Second):
		t.Fatal("hub stopped serving after duplicate unregister")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	c := &client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- c

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	_, open := <-c.send
	assert.False(t, open)
}
