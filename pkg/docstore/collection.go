package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/google/uuid"
)

// Meta is embedded by every stored entity
type Meta struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Meta) DocMeta() *Meta { return m }

// Record is implemented by pointers to structs embedding Meta
type Record interface {
	DocMeta() *Meta
}

// Collection is a typed view over one store collection. Its mutators publish
// every successful write to the feed.
type Collection[T any, PT interface {
	*T
	Record
}] struct {
	name  string
	store Store
	feed  Feed
}

func NewCollection[T any, PT interface {
	*T
	Record
}](store Store, feed Feed, name string) *Collection[T, PT] {
	return &Collection[T, PT]{
		name:  name,
		store: store,
		feed:  feed,
	}
}

func (c *Collection[T, PT]) Name() string { return c.name }

func (c *Collection[T, PT]) decode(doc *Document) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(doc.Data, v); err != nil {
		return nil, errx.Wrap(err, "failed to decode "+c.name+" document", errx.TypeInternal).
			WithDetail("id", doc.ID)
	}
	meta := PT(v).DocMeta()
	meta.ID = doc.ID
	meta.Version = doc.Version
	meta.CreatedAt = doc.CreatedAt
	meta.UpdatedAt = doc.UpdatedAt
	return v, nil
}

func (c *Collection[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	doc, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return nil, err
	}
	return c.decode(doc)
}

// List returns every record ordered by creation time
func (c *Collection[T, PT]) List(ctx context.Context) ([]*T, error) {
	docs, err := c.store.List(ctx, c.name)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].CreatedAt.Before(docs[j].CreatedAt) })

	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		v, err := c.decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Filter lists the records matching pred
func (c *Collection[T, PT]) Filter(ctx context.Context, pred func(*T) bool) ([]*T, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(all))
	for _, v := range all {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// First returns the first record matching pred, or nil
func (c *Collection[T, PT]) First(ctx context.Context, pred func(*T) bool) (*T, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range all {
		if pred(v) {
			return v, nil
		}
	}
	return nil, nil
}

// Create stores v, assigning an ID when it has none
func (c *Collection[T, PT]) Create(ctx context.Context, v *T) error {
	meta := PT(v).DocMeta()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return errx.Wrap(err, "failed to encode "+c.name+" document", errx.TypeInternal)
	}

	doc := &Document{Collection: c.name, ID: meta.ID, Data: data}
	if err := c.store.Create(ctx, doc); err != nil {
		return err
	}
	c.apply(meta, doc)
	c.publish(ctx, OpCreated, doc)
	return nil
}

// Update writes v back. The stored version must still match v's version.
func (c *Collection[T, PT]) Update(ctx context.Context, v *T) error {
	meta := PT(v).DocMeta()

	data, err := json.Marshal(v)
	if err != nil {
		return errx.Wrap(err, "failed to encode "+c.name+" document", errx.TypeInternal)
	}

	doc := &Document{Collection: c.name, ID: meta.ID, Version: meta.Version, Data: data}
	if err := c.store.Update(ctx, doc); err != nil {
		return err
	}
	c.apply(meta, doc)
	c.publish(ctx, OpUpdated, doc)
	return nil
}

// Upsert creates v when its ID is unknown and overwrites it otherwise, ignoring versions
func (c *Collection[T, PT]) Upsert(ctx context.Context, v *T) error {
	meta := PT(v).DocMeta()
	if meta.ID != "" {
		if _, err := c.store.Get(ctx, c.name, meta.ID); err == nil {
			meta.Version = 0
			return c.Update(ctx, v)
		} else if !IsNotFound(err) {
			return err
		}
	}
	return c.Create(ctx, v)
}

func (c *Collection[T, PT]) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, c.name, id); err != nil {
		return err
	}
	c.publish(ctx, OpDeleted, &Document{Collection: c.name, ID: id, UpdatedAt: time.Now()})
	return nil
}

// Changes streams raw changes of this collection until ctx is done
func (c *Collection[T, PT]) Changes(ctx context.Context) (<-chan Change, error) {
	return c.feed.Subscribe(ctx, c.name)
}

// Watch calls fn with the full collection once, then again after every change,
// until ctx is done. It blocks.
func (c *Collection[T, PT]) Watch(ctx context.Context, fn func([]*T)) error {
	changes, err := c.feed.Subscribe(ctx, c.name)
	if err != nil {
		return err
	}

	snapshot, err := c.List(ctx)
	if err != nil {
		return err
	}
	fn(snapshot)

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			snapshot, err := c.List(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			fn(snapshot)
		}
	}
}

func (c *Collection[T, PT]) apply(meta *Meta, doc *Document) {
	meta.Version = doc.Version
	meta.CreatedAt = doc.CreatedAt
	meta.UpdatedAt = doc.UpdatedAt
}

func (c *Collection[T, PT]) publish(ctx context.Context, op Op, doc *Document) {
	if c.feed == nil {
		return
	}
	change := Change{
		Op:         op,
		Collection: c.name,
		ID:         doc.ID,
		Version:    doc.Version,
		Data:       doc.Data,
		At:         doc.UpdatedAt,
	}
	if err := c.feed.Publish(ctx, change); err != nil {
		logx.WithFields(logx.Fields{"collection": c.name, "id": doc.ID, "op": op}).
			Warnf("failed to publish change: %v", err)
	}
}
