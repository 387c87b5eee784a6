// Package resources wraps the backend's REST resources
package resources

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mrcode/diabetes-dashboard/internal/api"
)

// Collection is the list/get/create/update/delete pattern shared by every
// resource. Base is the collection path exactly as the backend spells it,
// trailing slash included where the backend expects one.
type Collection[T any] struct {
	client *api.Client
	base   string
	items  string
}

// NewCollection builds a collection rooted at base. Item paths are
// itemPrefix + id.
func NewCollection[T any](client *api.Client, base, itemPrefix string) *Collection[T] {
	return &Collection[T]{client: client, base: base, items: itemPrefix}
}

func (c *Collection[T]) itemPath(id string) string {
	return c.items + url.PathEscape(id)
}

// List fetches the collection, passing query through verbatim
func (c *Collection[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	return list[T](ctx, c.client, c.base, query)
}

// Get fetches one record; a missing record fails with KindNotFound
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := c.client.Get(ctx, c.itemPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create posts draft and decodes the bare record the server returns
func (c *Collection[T]) Create(ctx context.Context, draft any) (*T, error) {
	var out T
	if err := c.client.Post(ctx, c.base, draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update puts record and decodes the bare record the server returns
func (c *Collection[T]) Update(ctx context.Context, id string, record any) (*T, error) {
	var out T
	if err := c.client.Put(ctx, c.itemPath(id), record, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a record
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.client.Delete(ctx, c.itemPath(id), nil)
}

func list[T any](ctx context.Context, client *api.Client, path string, query url.Values) ([]T, error) {
	var out []T
	if err := client.Get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func get[T any](ctx context.Context, client *api.Client, path string, query url.Values) (*T, error) {
	var out T
	if err := client.Get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// enveloped sends body and unwraps the record under key
func enveloped[T any](ctx context.Context, client *api.Client, method, path string, opts api.RequestOptions, key string) (*T, error) {
	var env api.Envelope
	if err := client.Send(ctx, method, path, opts, &env); err != nil {
		return nil, err
	}
	var out T
	if err := env.Decode(key, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func postEnveloped[T any](ctx context.Context, client *api.Client, path string, body any, key string) (*T, error) {
	return enveloped[T](ctx, client, http.MethodPost, path, api.RequestOptions{Body: body}, key)
}

func putEnveloped[T any](ctx context.Context, client *api.Client, path string, body any, key string) (*T, error) {
	return enveloped[T](ctx, client, http.MethodPut, path, api.RequestOptions{Body: body}, key)
}
