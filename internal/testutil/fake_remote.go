// Package testutil provides a scriptable in-memory stand-in for the upstream
// service client.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/file-tracker/backend/internal/models"
	"github.com/file-tracker/backend/internal/remote"
)

// ListCall records the arguments of one ListFiles invocation.
type ListCall struct {
	Offset int
	Limit  int
}

// FakeRemote implements remote.Client against in-memory fixtures. Tests
// mutate the listing to simulate upstream status transitions.
type FakeRemote struct {
	mu       sync.Mutex
	listing  []models.ListEntry
	details  map[string]map[string]any
	segments map[string][]any

	listErr    error
	detailErr  error
	segmentErr error

	listCalls []ListCall
}

// NewFakeRemote creates an empty fake upstream.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		details:  make(map[string]map[string]any),
		segments: make(map[string][]any),
	}
}

// AddFile appends a file to the upstream listing.
func (f *FakeRemote) AddFile(fileID, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listing = append(f.listing, models.ListEntry{FileID: fileID, ProcessingStatus: status})
}

// SetStatus changes the listed status at the given index.
func (f *FakeRemote) SetStatus(index int, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listing[index].ProcessingStatus = status
}

// SetFileID replaces the listed file_id at the given index. Used to simulate
// an inconsistent upstream.
func (f *FakeRemote) SetFileID(index int, fileID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listing[index].FileID = fileID
}

// SetDetails sets the detail object and segment list served for a file.
func (f *FakeRemote) SetDetails(fileID string, details map[string]any, segments []any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[fileID] = details
	f.segments[fileID] = segments
}

// FailListing makes subsequent ListFiles calls return the given error.
func (f *FakeRemote) FailListing(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

// FailDetails makes subsequent FileDetails calls fail.
func (f *FakeRemote) FailDetails(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailErr = err
}

// FailSegments makes subsequent FileSegments calls fail.
func (f *FakeRemote) FailSegments(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.segmentErr = err
}

// ListCalls returns every ListFiles invocation seen so far.
func (f *FakeRemote) ListCalls() []ListCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ListCall, len(f.listCalls))
	copy(out, f.listCalls)
	return out
}

// ListFiles returns the listing slice [offset, offset+limit).
func (f *FakeRemote) ListFiles(_ context.Context, offset, limit int) ([]models.ListEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls = append(f.listCalls, ListCall{Offset: offset, Limit: limit})
	if f.listErr != nil {
		return nil, f.listErr
	}
	if offset >= len(f.listing) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.listing) {
		end = len(f.listing)
	}
	out := make([]models.ListEntry, end-offset)
	copy(out, f.listing[offset:end])
	return out, nil
}

// FileDetails returns the configured detail object for a file.
func (f *FakeRemote) FileDetails(_ context.Context, fileID string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.detailErr != nil {
		return nil, f.detailErr
	}
	d, ok := f.details[fileID]
	if !ok {
		return nil, errors.New("no details for " + fileID)
	}
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out, nil
}

// FileSegments returns the configured segment list for a file.
func (f *FakeRemote) FileSegments(_ context.Context, fileID string) ([]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.segmentErr != nil {
		return nil, f.segmentErr
	}
	s, ok := f.segments[fileID]
	if !ok {
		return nil, errors.New("no segments for " + fileID)
	}
	out := make([]any, len(s))
	copy(out, s)
	return out, nil
}

var _ remote.Client = (*FakeRemote)(nil)
