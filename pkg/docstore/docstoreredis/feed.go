package docstoreredis

import (
	"context"
	"encoding/json"

	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "hireline:changes:"

// RedisFeed publishes changes on one pub/sub channel per collection so every
// API replica sees writes made by the others.
type RedisFeed struct {
	client *redis.Client
	buffer int
}

var _ docstore.Feed = (*RedisFeed)(nil)

func NewRedisFeed(client *redis.Client, buffer int) *RedisFeed {
	if buffer <= 0 {
		buffer = 64
	}
	return &RedisFeed{
		client: client,
		buffer: buffer,
	}
}

// Channel returns the pub/sub channel of a collection
func Channel(collection string) string {
	return channelPrefix + collection
}

func (f *RedisFeed) Publish(ctx context.Context, change docstore.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return errx.Wrap(err, "failed to encode change", errx.TypeInternal)
	}
	if err := f.client.Publish(ctx, Channel(change.Collection), payload).Err(); err != nil {
		return errx.Wrap(err, "failed to publish change", errx.TypeExternal).
			WithDetail("collection", change.Collection)
	}
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context, collections ...string) (<-chan docstore.Change, error) {
	var ps *redis.PubSub
	if len(collections) == 0 {
		ps = f.client.PSubscribe(ctx, channelPrefix+"*")
	} else {
		channels := make([]string, len(collections))
		for i, c := range collections {
			channels[i] = Channel(c)
		}
		ps = f.client.Subscribe(ctx, channels...)
	}

	// Wait for the subscription to be confirmed before returning
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, errx.Wrap(err, "failed to subscribe to change feed", errx.TypeExternal)
	}

	out := make(chan docstore.Change, f.buffer)
	go func() {
		defer close(out)
		defer ps.Close()

		messages := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var change docstore.Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					logx.WithField("channel", msg.Channel).Warnf("dropping malformed change: %v", err)
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
