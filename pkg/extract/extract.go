// Package extract defines the contract between the job queue and the
// presentation parser that performs the actual work. The queue never looks
// inside a Request or Result; it only schedules the call, forwards progress,
// and records the outcome.
package extract

import "context"

// Request describes one extraction task: the spooled source file plus the
// options for exactly one extraction flavor. Assets and Metadata are mutually
// exclusive; the set pointer determines what the extractor produces.
type Request struct {
	// FileRef is the absolute path of the spooled upload.
	FileRef string

	// FileName is the original upload name, kept for reporting.
	FileName string

	// FileSize is the spooled file size in bytes.
	FileSize int64

	Assets   *AssetOptions
	Metadata *MetadataOptions
}

// AssetOptions configures asset extraction.
type AssetOptions struct {
	// Types restricts extraction to the listed asset kinds
	// (image, video, audio). Empty means all kinds.
	Types []string

	// GenerateThumbnails requests slide thumbnails alongside raw assets.
	GenerateThumbnails bool
}

// MetadataOptions configures metadata extraction.
type MetadataOptions struct {
	IncludeCoreProperties bool
	IncludeAppProperties  bool
	IncludeSlideStats     bool
}

// Asset is one extracted media item.
type Asset struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Path  string `json:"path,omitempty"`
	Size  int64  `json:"size"`
	Slide int    `json:"slide,omitempty"`
}

// Metadata holds document-level properties of a presentation.
type Metadata struct {
	Title      string            `json:"title,omitempty"`
	Author     string            `json:"author,omitempty"`
	Created    string            `json:"created,omitempty"`
	Modified   string            `json:"modified,omitempty"`
	SlideCount int               `json:"slideCount"`
	MediaCount int               `json:"mediaCount"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Result is the opaque payload returned to the client on completion.
// Exactly one of Assets/Metadata is populated, matching the request.
type Result struct {
	Assets   []Asset   `json:"assets,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
}

// ProgressFunc receives best-effort progress updates in percent.
// Implementations must tolerate out-of-range and out-of-order values;
// the queue clamps and enforces monotonicity before persisting.
type ProgressFunc func(percent int)

// Extractor performs the actual parsing work for one request.
//
// Implementations must honor ctx cancellation: when ctx is done the call
// should unwind promptly and return ctx.Err(). The queue tolerates
// implementations that cannot be interrupted, but their late results are
// discarded.
type Extractor interface {
	Extract(ctx context.Context, req Request, progress ProgressFunc) (*Result, error)
}

// Func adapts a plain function to the Extractor interface.
// Useful for tests and lightweight wiring.
type Func func(ctx context.Context, req Request, progress ProgressFunc) (*Result, error)

// Extract implements Extractor.
func (f Func) Extract(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	return f(ctx, req, progress)
}
