package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastFanOut(t *testing.T) {
	source := make(chan int)
	srv := NewBroadcastServer("test", source)
	defer srv.Close()

	a := srv.Subscribe()
	b := srv.Subscribe()

	go func() { source <- 42 }()

	select {
	case got := <-a:
		assert.Equal(t, 42, got)
	case <-time.After(time.Second):
		t.Fatal("subscriber a timed out")
	}
	select {
	case got := <-b:
		assert.Equal(t, 42, got)
	case <-time.After(time.Second):
		t.Fatal("subscriber b timed out")
	}
}

func TestCancelSubscriptionClosesChannel(t *testing.T) {
	source := make(chan int)
	srv := NewBroadcastServer("test", source)
	defer srv.Close()

	ch := srv.Subscribe()
	srv.CancelSubscription(ch)

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}
