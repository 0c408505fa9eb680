package remote

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// CombinedInfo fetches a file's detail object and segment list concurrently
// and merges them into a single payload with the segments under a "segments"
// key. A failure of either fetch fails the whole call.
func CombinedInfo(ctx context.Context, c Client, fileID string) (map[string]any, error) {
	var (
		details  map[string]any
		segments []any
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		details, err = c.FileDetails(ctx, fileID)
		return err
	})
	g.Go(func() error {
		var err error
		segments, err = c.FileSegments(ctx, fileID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if details == nil {
		details = make(map[string]any, 1)
	}
	if segments == nil {
		segments = []any{}
	}
	details["segments"] = segments
	return details, nil
}
