package broker_test

import (
	"testing"
	"time"

	"github.com/ivargas/misterio/internal/broker"
	"github.com/stretchr/testify/require"
)

func TestChannelBroker_handsChannelToFirstSubscriber(t *testing.T) {
	b := broker.NewChannelBroker[string, int]()
	go b.Start()
	defer b.Stop()

	progress := make(chan int, 3)
	b.Publish("game_1", progress)

	received := <-b.Subscribe("game_1")
	require.NotNil(t, received, "first subscriber should receive the published channel")

	progress <- 25
	progress <- 90
	require.Equal(t, 25, <-received)
	require.Equal(t, 90, <-received)
}

func TestChannelBroker_unknownIDClosesImmediately(t *testing.T) {
	b := broker.NewChannelBroker[string, int]()
	go b.Start()
	defer b.Stop()

	_, ok := <-b.Subscribe("game_nope")
	require.False(t, ok, "subscription for unpublished ID should be closed")
}

func TestChannelBroker_secondSubscriberWaitsForUnpublish(t *testing.T) {
	b := broker.NewChannelBroker[string, int]()
	go b.Start()
	defer b.Stop()

	progress := make(chan int)
	b.Publish("game_1", progress)

	first := <-b.Subscribe("game_1")
	require.NotNil(t, first)

	second := b.Subscribe("game_1")
	select {
	case <-second:
		t.Fatal("second subscriber should block while the producer is active")
	case <-time.After(50 * time.Millisecond):
	}

	b.Unpublish("game_1")

	select {
	case _, ok := <-second:
		require.False(t, ok, "second subscriber should be released with a closed channel")
	case <-time.After(time.Second):
		t.Fatal("second subscriber was not released on unpublish")
	}
}
