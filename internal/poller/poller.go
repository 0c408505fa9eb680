// Package poller runs the two background loops that keep the file status
// cache in sync with the upstream service: the listing poller, which extends
// the pending set past the last seen index, and the status checker, which
// re-polls pending files and promotes finished ones.
package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/file-tracker/backend/internal/cache"
	"github.com/file-tracker/backend/internal/logging"
	"github.com/file-tracker/backend/internal/models"
	"github.com/file-tracker/backend/internal/remote"
)

// Options configures the loop cadence.
type Options struct {
	PageSize     int           // Listing page size
	PollInterval time.Duration // Status checker interval
	Backoff      time.Duration // Listing poller delay after an empty page
}

// Poller owns the two background loops. Both run for the life of the passed
// context and recover from any single bad iteration by logging and carrying
// on.
type Poller struct {
	client remote.Client
	cache  *cache.Cache
	opts   Options
	log    zerolog.Logger
}

// New creates a Poller over the given cache and upstream client.
func New(client remote.Client, c *cache.Cache, opts Options) *Poller {
	return &Poller{
		client: client,
		cache:  c,
		opts:   opts,
		log:    logging.Component("poller"),
	}
}

// Start launches the listing and status checking loops. They stop when ctx
// is cancelled.
func (p *Poller) Start(ctx context.Context) {
	go p.runListing(ctx)
	go p.runChecker(ctx)
}

// runListing pages through the upstream listing. A non-empty page is
// followed immediately by the next request to drain a backlog; an empty page
// or a failed request backs off before retrying.
func (p *Poller) runListing(ctx context.Context) {
	for {
		n, err := p.pollOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Warn().Err(err).Msg("file listing failed")
		}
		if err == nil && n > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.opts.Backoff):
		}
	}
}

// pollOnce requests one page at the cursor and ingests it. Returns the
// number of entries the upstream returned.
func (p *Poller) pollOnce(ctx context.Context) (int, error) {
	offset := p.cache.Cursor()
	p.log.Debug().Int("offset", offset).Msg("fetching file listing")

	entries, err := p.client.ListFiles(ctx, offset, p.opts.PageSize)
	if err != nil {
		return 0, err
	}
	if added := p.cache.AppendListing(entries); added > 0 {
		p.log.Info().Int("offset", offset).Int("added", added).
			Msg("new files discovered")
	}
	return len(entries), nil
}

// runChecker re-polls pending files on a fixed interval. A pass that
// promoted at least one record is repeated immediately so bursts of
// completions drain without waiting for the next tick.
func (p *Poller) runChecker(ctx context.Context) {
	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()

	for {
		p.runPasses(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runPasses runs status check passes back to back while they keep promoting
// records. Returns the number of passes executed.
func (p *Poller) runPasses(ctx context.Context) int {
	passes := 0
	for {
		promoted, err := p.checkOnce(ctx)
		passes++
		if err != nil {
			if ctx.Err() == nil {
				p.log.Warn().Err(err).Msg("file status check failed")
			}
			return passes
		}
		if promoted == 0 {
			return passes
		}
	}
}

// checkOnce performs one pass over the pending set in index order. Records
// still processing get a single-item authoritative status fetch; a returned
// file_id that does not match the stored one aborts the pass before any
// record is resolved. After a clean pass, finished records are promoted and
// records in any other non-processing state are discarded.
func (p *Poller) checkOnce(ctx context.Context) (int, error) {
	var finished, discarded []*models.FileRecord

	for _, r := range p.cache.PendingSnapshot() {
		if r.IsProcessing() {
			status, err := p.fetchStatus(ctx, r)
			if err != nil {
				return 0, err
			}
			p.cache.SetStatus(r, status)
		}

		if r.IsFinished() {
			finished = append(finished, r)
		} else if !r.IsProcessing() {
			p.log.Info().Int("index", r.Index).Str("fileId", r.FileID).
				Str("status", r.Status).Msg("discarding file in terminal state")
			discarded = append(discarded, r)
		}
	}

	promoted := p.cache.Resolve(finished, discarded)
	if promoted > 0 {
		p.log.Info().Int("promoted", promoted).Msg("files finished processing")
	}
	return promoted, nil
}

// fetchStatus reads the authoritative status for a record by re-requesting
// its listing position with limit 1.
func (p *Poller) fetchStatus(ctx context.Context, r *models.FileRecord) (string, error) {
	entries, err := p.client.ListFiles(ctx, r.Index, 1)
	if err != nil {
		return "", fmt.Errorf("status fetch at index %d: %w", r.Index, err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("empty status response at index %d", r.Index)
	}
	if entries[0].FileID != r.FileID {
		return "", fmt.Errorf("upstream returned file %q at index %d, expected %q",
			entries[0].FileID, r.Index, r.FileID)
	}
	return entries[0].ProcessingStatus, nil
}
