package eventsource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoll_EmitsOnInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wake := Poll(ctx, 10*time.Millisecond)

	select {
	case <-wake:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected a wake signal within 500ms")
	}
}

func TestMerge_FansInFromMultipleSources(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := make(chan struct{}, 1)
	b := make(chan struct{}, 1)
	merged := Merge(ctx, a, b)

	a <- struct{}{}
	select {
	case <-merged:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected a wake signal forwarded from source a")
	}

	b <- struct{}{}
	select {
	case <-merged:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected a wake signal forwarded from source b")
	}
}

func TestPoll_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	wake := Poll(ctx, 5*time.Millisecond)
	<-wake
	cancel()

	// Draining a couple more ticks and then asserting no panic / hang is
	// the practical bound on testing goroutine shutdown without a done
	// signal exposed by Poll itself.
	time.Sleep(20 * time.Millisecond)
	assert.NotNil(t, wake)
}
