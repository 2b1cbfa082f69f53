package docstore

import "context"

// Repository is the port domain services depend on. *Collection implements it.
type Repository[T any] interface {
	Name() string
	Get(ctx context.Context, id string) (*T, error)
	List(ctx context.Context) ([]*T, error)
	Filter(ctx context.Context, pred func(*T) bool) ([]*T, error)
	First(ctx context.Context, pred func(*T) bool) (*T, error)
	Create(ctx context.Context, v *T) error
	Update(ctx context.Context, v *T) error
	Upsert(ctx context.Context, v *T) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context, fn func([]*T)) error
}

// IDOf returns the document id of a record, empty when v is not one
func IDOf(v any) string {
	if r, ok := v.(Record); ok {
		return r.DocMeta().ID
	}
	return ""
}
