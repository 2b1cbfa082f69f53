package docstore

import (
	"context"
	"sync"

	"github.com/Abraxas-365/hireline/pkg/logx"
)

// LocalFeed fans changes out to in-process subscribers. A subscriber whose
// buffer is full is dropped so publishers never block.
type LocalFeed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
	buffer int
}

type subscriber struct {
	collections map[string]bool
	ch          chan Change
}

func (s *subscriber) wants(collection string) bool {
	return len(s.collections) == 0 || s.collections[collection]
}

var _ Feed = (*LocalFeed)(nil)

func NewLocalFeed(buffer int) *LocalFeed {
	if buffer <= 0 {
		buffer = 64
	}
	return &LocalFeed{
		subs:   make(map[int]*subscriber),
		buffer: buffer,
	}
}

func (f *LocalFeed) Publish(ctx context.Context, change Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, sub := range f.subs {
		if !sub.wants(change.Collection) {
			continue
		}
		select {
		case sub.ch <- change:
		default:
			logx.WithFields(logx.Fields{"subscriber": id, "collection": change.Collection}).
				Warn("change feed subscriber too slow, dropping")
			f.removeLocked(id)
		}
	}
	return nil
}

func (f *LocalFeed) Subscribe(ctx context.Context, collections ...string) (<-chan Change, error) {
	sub := &subscriber{
		collections: make(map[string]bool, len(collections)),
		ch:          make(chan Change, f.buffer),
	}
	for _, c := range collections {
		sub.collections[c] = true
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = sub
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		f.removeLocked(id)
		f.mu.Unlock()
	}()

	return sub.ch, nil
}

// Subscribers returns the number of live subscriptions
func (f *LocalFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *LocalFeed) removeLocked(id int) {
	if sub, ok := f.subs[id]; ok {
		close(sub.ch)
		delete(f.subs, id)
	}
}
