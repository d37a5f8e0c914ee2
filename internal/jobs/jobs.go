// Package jobs runs background media jobs (remux, optimize, download) one at
// a time behind a mutual-exclusion gate.
package jobs

import "time"

// Kind identifies a job type
type Kind string

const (
	KindRemux    Kind = "remux"
	KindOptimize Kind = "optimize"
	KindDownload Kind = "download"
)

// Payload is the typed payload of one job kind
type Payload interface {
	Kind() Kind
}

// RemuxPayload describes a container remux of an item
type RemuxPayload struct {
	ItemID    string
	SourceURL string
	Container string
}

func (RemuxPayload) Kind() Kind { return KindRemux }

// OptimizePayload describes a bitrate-capped re-encode of an item
type OptimizePayload struct {
	ItemID     string
	MaxBitrate int
}

func (OptimizePayload) Kind() Kind { return KindOptimize }

// DownloadPayload describes an offline download of an item
type DownloadPayload struct {
	ItemID     string
	TargetPath string
}

func (DownloadPayload) Kind() Kind { return KindDownload }

// Job is one queued unit of work
type Job struct {
	ID         int64
	Payload    Payload
	EnqueuedAt time.Time
}
