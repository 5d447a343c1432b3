package broker

type publication[TID comparable, TPayload any] struct {
	id      TID
	channel chan TPayload
}

type subscription[TID comparable, TPayload any] struct {
	id      TID
	channel chan chan TPayload
}

// ChannelBroker hands a channel published under an ID to the first consumer
// that asks for it. Later consumers block until the producer unpublishes, so
// they can fall back to the persisted state instead of a half-consumed stream.
//
// It carries progress events for long-running game operations: the HTTP POST
// that drives a turn publishes a channel of progress updates, and the SSE
// handler for the same game subscribes to relay them to the browser. A
// reconnecting browser becomes a second subscriber and simply waits until the
// operation finishes, at which point it re-renders from the saved session.
type ChannelBroker[TID comparable, TPayload any] struct {
	stopChannel      chan struct{}
	publishChannel   chan publication[TID, TPayload]
	unpublishChannel chan TID
	subscribeChannel chan subscription[TID, TPayload]
}

// NewChannelBroker creates a new ChannelBroker. Call Start in a goroutine and
// Stop to shut it down.
func NewChannelBroker[TID comparable, TPayload any]() *ChannelBroker[TID, TPayload] {
	return &ChannelBroker[TID, TPayload]{
		stopChannel:      make(chan struct{}),
		publishChannel:   make(chan publication[TID, TPayload]),
		unpublishChannel: make(chan TID),
		subscribeChannel: make(chan subscription[TID, TPayload]),
	}
}

// Start listening for publish, unpublish, and subscribe events. This function blocks until Stop() is called,
// so it should be called in a goroutine. It does not handle panics, so it should be wrapped in a recover.
func (b *ChannelBroker[TID, TPayload]) Start() {
	publishedChannels := map[TID]chan TPayload{}
	subscriberLists := map[TID][]chan chan TPayload{}
	for {
		select {
		case <-b.stopChannel:
			return

		case sub := <-b.subscribeChannel:
			c := publishedChannels[sub.id]
			if c == nil {
				// Signal to the subscriber that the producer is finished (or hasn't started yet).
				close(sub.channel)
				break
			}
			subscribers := subscriberLists[sub.id]
			if subscribers == nil {
				// First subscriber gets the channel from the producer.
				subscriberLists[sub.id] = []chan chan TPayload{sub.channel}
				sub.channel <- c
			} else {
				// Subsequent subscribers block until the producer is finished.
				subscriberLists[sub.id] = append(subscribers, sub.channel)
			}

		case pub := <-b.publishChannel:
			publishedChannels[pub.id] = pub.channel

		case id := <-b.unpublishChannel:
			if subscribers := subscriberLists[id]; len(subscribers) > 1 {
				for _, waiting := range subscribers[1:] {
					close(waiting)
				}
			}
			delete(publishedChannels, id)
			delete(subscriberLists, id)
		}
	}
}

// Stop the goroutine that handles the broker.
func (b *ChannelBroker[TID, TPayload]) Stop() {
	close(b.stopChannel)
}

// Subscribe to the channel with ID. Returns a channel that will receive the channel corresponding to the ID.
// If the channel is not yet published, the returned channel will be closed.
// If there's already a subscriber, the returned channel blocks until the producer unpublishes and is then closed.
func (b *ChannelBroker[TID, TPayload]) Subscribe(id TID) chan chan TPayload {
	channel := make(chan chan TPayload, 1)
	b.subscribeChannel <- subscription[TID, TPayload]{
		id:      id,
		channel: channel,
	}
	return channel
}

// Publish the channel with ID. The channel will be handed to the first subscriber.
// Use an unbuffered channel so the producer blocks until it has a consumer, and
// pair the send with a timeout if the consumers are unreliable.
func (b *ChannelBroker[TID, TPayload]) Publish(id TID, channel chan TPayload) {
	b.publishChannel <- publication[TID, TPayload]{
		id:      id,
		channel: channel,
	}
}

// Unpublish the channel with ID, releasing any subscribers that were waiting on it.
func (b *ChannelBroker[TID, TPayload]) Unpublish(id TID) {
	b.unpublishChannel <- id
}
