package resources

import (
	"context"
	"fmt"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/session"

	"golang.org/x/sync/errgroup"
)

// Count is one overview row.
type Count struct {
	Resource string         `json:"resource"`
	Title    string         `json:"title"`
	Count    int            `json:"count"`
	ByStatus map[string]int `json:"byStatus"`
}

type counter func(ctx context.Context, c *api.Client) (Count, error)

func countOf[T any](def *Def[T]) counter {
	return func(ctx context.Context, c *api.Client) (Count, error) {
		items, err := def.Fetch(ctx, c)
		if err != nil {
			return Count{}, fmt.Errorf("%s: %w", def.Key, err)
		}
		row := Count{Resource: def.Key, Title: def.Title, Count: len(items), ByStatus: map[string]int{}}
		if def.Status != nil {
			for _, it := range items {
				row.ByStatus[def.Status(it)]++
			}
		}
		return row, nil
	}
}

var counters = map[string]counter{
	"users":         countOf(Users()),
	"links":         countOf(Links()),
	"qrcodes":       countOf(QRCodes()),
	"files":         countOf(Files()),
	"subscriptions": countOf(Subscriptions()),
	"transactions":  countOf(Transactions()),
	"posts":         countOf(Posts()),
}

// overviewParallel bounds concurrent list fetches.
const overviewParallel = 4

// Overview fetches every resource sess may see, concurrently, and counts items
// per status. Rows follow Keys order. The first failure cancels the rest.
func Overview(ctx context.Context, sess session.Session, c *api.Client) ([]Count, error) {
	var keys []string
	for _, k := range Keys {
		if item, ok := session.FindNav(k); ok && sess.CanSee(item) {
			keys = append(keys, k)
		}
	}

	rows := make([]Count, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewParallel)
	for i, k := range keys {
		g.Go(func() error {
			row, err := counters[k](ctx, c)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}
