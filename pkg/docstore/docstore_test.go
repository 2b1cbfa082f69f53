package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type note struct {
	Meta
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

func newNotes() (*Collection[note, *note], *LocalFeed) {
	feed := NewLocalFeed(8)
	return NewCollection[note](NewMemoryStore(), feed, "notes"), feed
}

func TestMemoryStoreVersioning(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	doc := &Document{Collection: "c", ID: "1", Data: []byte(`{}`)}
	require.NoError(t, s.Create(ctx, doc))
	assert.Equal(t, int64(1), doc.Version)

	err := s.Create(ctx, &Document{Collection: "c", ID: "1", Data: []byte(`{}`)})
	assert.True(t, errx.IsType(err, errx.TypeConflict))

	stale := &Document{Collection: "c", ID: "1", Version: 1, Data: []byte(`{"a":1}`)}
	require.NoError(t, s.Update(ctx, stale))
	assert.Equal(t, int64(2), stale.Version)

	again := &Document{Collection: "c", ID: "1", Version: 1, Data: []byte(`{"a":2}`)}
	err = s.Update(ctx, again)
	require.Error(t, err)
	assert.Contains(t, err.Error(), CodeVersionConflict)

	require.NoError(t, s.Delete(ctx, "c", "1"))
	_, err = s.Get(ctx, "c", "1")
	assert.True(t, IsNotFound(err))
}

func TestCollectionCRUD(t *testing.T) {
	ctx := context.Background()
	notes, _ := newNotes()

	n := &note{Title: "call back"}
	require.NoError(t, notes.Create(ctx, n))
	require.NotEmpty(t, n.ID)
	assert.Equal(t, int64(1), n.Version)

	n.Done = true
	require.NoError(t, notes.Update(ctx, n))
	assert.Equal(t, int64(2), n.Version)

	got, err := notes.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, got.Done)
	assert.Equal(t, int64(2), got.Version)

	open, err := notes.Filter(ctx, func(x *note) bool { return !x.Done })
	require.NoError(t, err)
	assert.Empty(t, open)

	require.NoError(t, notes.Delete(ctx, n.ID))
	_, err = notes.Get(ctx, n.ID)
	assert.True(t, IsNotFound(err))
}

func TestCollectionConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	notes, _ := newNotes()

	n := &note{Title: "a"}
	require.NoError(t, notes.Create(ctx, n))

	first, err := notes.Get(ctx, n.ID)
	require.NoError(t, err)
	second, err := notes.Get(ctx, n.ID)
	require.NoError(t, err)

	first.Title = "first"
	require.NoError(t, notes.Update(ctx, first))

	second.Title = "second"
	err = notes.Update(ctx, second)
	assert.True(t, errx.IsType(err, errx.TypeConflict))
}

func TestCollectionUpsert(t *testing.T) {
	ctx := context.Background()
	notes, _ := newNotes()

	n := &note{Meta: Meta{ID: "fixed"}, Title: "a"}
	require.NoError(t, notes.Upsert(ctx, n))

	again := &note{Meta: Meta{ID: "fixed"}, Title: "b"}
	require.NoError(t, notes.Upsert(ctx, again))

	got, err := notes.Get(ctx, "fixed")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Title)
}

func TestWatchDeliversSnapshots(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	notes, feed := newNotes()
	require.NoError(t, notes.Create(ctx, &note{Title: "existing"}))

	snapshots := make(chan int, 4)
	done := make(chan error, 1)
	go func() {
		done <- notes.Watch(ctx, func(all []*note) { snapshots <- len(all) })
	}()

	assert.Equal(t, 1, <-snapshots)
	require.Eventually(t, func() bool { return feed.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, notes.Create(ctx, &note{Title: "new"}))
	assert.Equal(t, 2, <-snapshots)

	cancel()
	require.NoError(t, <-done)
	require.Eventually(t, func() bool { return feed.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestLocalFeedFiltersAndDropsSlowSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewLocalFeed(1)
	only, err := feed.Subscribe(ctx, "candidates")
	require.NoError(t, err)

	require.NoError(t, feed.Publish(ctx, Change{Op: OpCreated, Collection: "lineups", ID: "x"}))
	require.NoError(t, feed.Publish(ctx, Change{Op: OpCreated, Collection: "candidates", ID: "1"}))
	require.NoError(t, feed.Publish(ctx, Change{Op: OpCreated, Collection: "candidates", ID: "2"}))

	first, ok := <-only
	require.True(t, ok)
	assert.Equal(t, "1", first.ID)

	_, ok = <-only
	assert.False(t, ok, "overflowing subscriber is closed")
	assert.Equal(t, 0, feed.Subscribers())
}

var _ Repository[note] = (*Collection[note, *note])(nil)
