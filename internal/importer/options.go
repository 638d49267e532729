// Package importer drives the dump reader into the chunk store and index
// under the crash-safe commit protocol: a parallel parse/encode/scan
// stage feeding a single, strictly serialised committer.
package importer

import (
	"log/slog"
	"runtime"

	"github.com/pbnjay/memory"

	"wikistore/internal/slugify"
)

const defaultPagesPerChunk = 200
const maxTransientRetries = 3

// memoryScaledPagesPerChunk estimates a batch size from total system RAM,
// the same role github.com/pbnjay/memory plays in sizing wikipath's build
// worker pool: a machine too small to report its memory (containers
// without /proc, or the library's "unknown" zero value) falls back to
// defaultPagesPerChunk rather than guessing.
func memoryScaledPagesPerChunk() int {
	total := memory.TotalMemory()
	if total == 0 {
		return defaultPagesPerChunk
	}
	// Budget roughly 1 MiB of in-flight batch memory per 1 GiB of RAM,
	// assuming an average encoded page size of about 20 KiB (50 pages per
	// GiB); bounded well away from pathological extremes.
	const bytesPerGiB = 1 << 30
	scaled := int(total/bytesPerGiB) * 50
	if scaled < defaultPagesPerChunk {
		return defaultPagesPerChunk
	}
	if scaled > 5000 {
		return 5000
	}
	return scaled
}

// Options configures one import run.
type Options struct {
	JobDir                string
	PagesPerChunk         int
	Parallelism           int
	ApproximatePageLimit  int64 // 0 means unlimited
	ClearBeforeImport     bool
	NamespaceRules        slugify.NamespaceRules
	Logger                *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.PagesPerChunk <= 0 {
		o.PagesPerChunk = memoryScaledPagesPerChunk()
	}
	if o.Parallelism <= 0 {
		o.Parallelism = runtime.NumCPU()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Report summarises the outcome of one import run.
type Report struct {
	BatchesCommitted int
	PagesImported    int64
	FilesProcessed   []string
	FailedFile       string
	FailedBatchIndex int
	Err              error
}
