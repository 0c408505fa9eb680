package models

// Processing status literals returned by the upstream service. Anything
// outside this set is treated as a terminal failure state.
const (
	StatusProcessing = "PROCESSING"
	StatusFinished   = "FINISHED"
)

// ListEntry is one element of the upstream file listing response.
type ListEntry struct {
	FileID           string `json:"fileId"`
	ProcessingStatus string `json:"processingStatus"`
}

// FileRecord tracks the processing state of a single upstream file.
// Index is the file's position in the upstream listing's total order and is
// immutable once assigned; Status is updated in place by the status checker.
type FileRecord struct {
	Index  int    `json:"index" msgpack:"index"`
	FileID string `json:"fileId" msgpack:"fileId"`
	Status string `json:"status" msgpack:"status"`
}

// IsProcessing reports whether the file is still being processed upstream.
func (r *FileRecord) IsProcessing() bool {
	return r.Status == StatusProcessing
}

// IsFinished reports whether the file finished processing successfully.
func (r *FileRecord) IsFinished() bool {
	return r.Status == StatusFinished
}
