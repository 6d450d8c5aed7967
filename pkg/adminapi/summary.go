package adminapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Summary counts the records of every managed collection concurrently. The
// first failure cancels the remaining calls.
func (c *Client) Summary(ctx context.Context) (map[string]int, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(3)

	var mu sync.Mutex
	counts := make(map[string]int, len(Paths))
	for _, p := range Paths {
		g.Go(func() error {
			data, err := c.Do(ctx, http.MethodGet, p, nil)
			if err != nil {
				return eris.Wrapf(err, "adminapi: count %s", p)
			}
			var items []json.RawMessage
			if len(data) > 0 && string(data) != "null" {
				if err := json.Unmarshal(data, &items); err != nil {
					return eris.Wrapf(err, "adminapi: decode %s list", p)
				}
			}
			mu.Lock()
			counts[p] = len(items)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}
