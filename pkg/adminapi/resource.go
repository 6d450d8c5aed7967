package adminapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
)

// Resource is a typed CRUD collection at one API path.
type Resource[T any] struct {
	c    *Client
	path string
}

// NewResource binds a collection path to c.
func NewResource[T any](c *Client, path string) Resource[T] {
	return Resource[T]{c: c, path: path}
}

// Path returns the collection path.
func (r Resource[T]) Path() string { return r.path }

func (r Resource[T]) item(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// List returns every record in the collection.
func (r Resource[T]) List(ctx context.Context) ([]T, error) {
	data, err := r.c.Do(ctx, http.MethodGet, r.path, nil)
	if err != nil {
		return nil, err
	}
	var out []T
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrapf(err, "adminapi: decode %s list", r.path)
	}
	return out, nil
}

// Get returns one record.
func (r Resource[T]) Get(ctx context.Context, id string) (T, error) {
	return r.one(ctx, http.MethodGet, r.item(id), nil)
}

// Create stores a new record and returns it as saved.
func (r Resource[T]) Create(ctx context.Context, v T) (T, error) {
	return r.one(ctx, http.MethodPost, r.path, v)
}

// Update replaces the record id and returns it as saved.
func (r Resource[T]) Update(ctx context.Context, id string, v T) (T, error) {
	return r.one(ctx, http.MethodPut, r.item(id), v)
}

// Delete removes the record id.
func (r Resource[T]) Delete(ctx context.Context, id string) error {
	_, err := r.c.Do(ctx, http.MethodDelete, r.item(id), nil)
	return err
}

func (r Resource[T]) one(ctx context.Context, method, path string, body any) (T, error) {
	var out T
	data, err := r.c.Do(ctx, method, path, body)
	if err != nil {
		return out, err
	}
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, eris.Wrapf(err, "adminapi: decode %s", path)
	}
	return out, nil
}
