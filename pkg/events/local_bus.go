package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const localTopic = "chat_events"

// LocalBus delivers events to in-process subscribers over a watermill
// GoChannel.
type LocalBus struct {
	pubSub *gochannel.GoChannel
}

func NewLocalBus(log watermill.LoggerAdapter) *LocalBus {
	if log == nil {
		log = watermill.NopLogger{}
	}
	return &LocalBus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, log),
	}
}

func (b *LocalBus) Publish(ctx context.Context, event Event) error {
	payload, err := Encode(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_type", event.EventType())
	msg.SetContext(ctx)

	if err := b.pubSub.Publish(localTopic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
	}
	return nil
}

// Subscribe streams events until ctx is cancelled or the bus is closed.
// Only events published after the call are delivered.
func (b *LocalBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	messages, err := b.pubSub.Subscribe(ctx, localTopic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range messages {
			e, err := Decode(msg.Payload)
			msg.Ack()
			if err != nil {
				continue
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (b *LocalBus) Close() error {
	return b.pubSub.Close()
}
