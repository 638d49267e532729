package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/sync/errgroup"

	"wikistore/internal/chunkcodec"
	"wikistore/internal/chunkstore"
	"wikistore/internal/dump"
	"wikistore/internal/index"
	"wikistore/internal/slugify"
	"wikistore/internal/storeerr"
)

// Coordinator drives the full import pipeline over one open store.
type Coordinator struct {
	store          *chunkstore.Store
	idx            *index.Index
	log            *slog.Logger
	namespaceRules slugify.NamespaceRules
}

// New returns a Coordinator over an already-open chunk store and index.
// rules is the namespace-dependent title-casing policy used both for
// ordinary imports and for reconstructing page rows during startup
// recovery (see Recover).
func New(store *chunkstore.Store, idx *index.Index, log *slog.Logger, rules slugify.NamespaceRules) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{store: store, idx: idx, log: log.With("component", "importer"), namespaceRules: rules}
}

// commitJob is one encoded batch awaiting the serialised committer.
type commitJob struct {
	file     string
	pages    []chunkcodec.Page
	rows     []index.PageRow
}

// Run enumerates opts.JobDir's dump files in plain lexical (byte-wise)
// order, so numeric parts of file names are not compared by value,
// streams and batches their pages, encodes and category-scans each batch
// in parallel, and commits batches one at a time via the crash-safe
// protocol. It honours ctx cancellation at batch granularity: in-flight
// batches either complete and commit, or discard their temp file.
func (c *Coordinator) Run(ctx context.Context, opts Options) (Report, error) {
	opts = opts.withDefaults()
	if opts.NamespaceRules == nil {
		opts.NamespaceRules = c.namespaceRules
	}

	if opts.ClearBeforeImport {
		if err := c.Clear(ctx); err != nil {
			return Report{}, fmt.Errorf("clear before import: %w", err)
		}
	}

	files, err := enumerateJobFiles(opts.JobDir)
	if err != nil {
		return Report{}, err
	}

	ok, err := c.store.TryLock()
	if err != nil {
		return Report{}, fmt.Errorf("acquire chunk store writer lock: %w", err)
	}
	if !ok {
		return Report{}, storeerr.New(storeerr.KindConflict, "Import", chunkstore.ErrLocked)
	}
	defer c.store.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallelism)

	commitCh := make(chan commitJob, opts.Parallelism*2)
	report := Report{}
	committerErr := make(chan error, 1)

	bar := newProgressBar(opts.ApproximatePageLimit)
	defer bar.Finish()

	go c.runCommitter(ctx, commitCh, &report, bar, committerErr)

	var emitted int64
	var fatalFile string

enumerate:
	for _, file := range files {
		if gctx.Err() != nil {
			break
		}
		remaining := int64(0)
		if opts.ApproximatePageLimit > 0 {
			remaining = opts.ApproximatePageLimit - emitted
			if remaining <= 0 {
				break
			}
		}

		reader, err := dump.Open(file, dump.CompressionAuto, remaining)
		if err != nil {
			close(commitCh)
			<-committerErr
			return report, fmt.Errorf("open dump file %s: %w", file, err)
		}

		for {
			batch, n, readErr := readBatch(reader, opts.PagesPerChunk)
			emitted += int64(n)
			if len(batch) > 0 {
				b := batch
				f := file
				g.Go(func() error {
					return c.encodeAndSend(gctx, f, b, opts, commitCh)
				})
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				reader.Close()
				fatalFile = file
				break enumerate
			}
			if gctx.Err() != nil {
				break
			}
		}
		reader.Close()
		report.FilesProcessed = append(report.FilesProcessed, file)
	}

	workerErr := g.Wait()
	close(commitCh)
	cErr := <-committerErr

	report.PagesImported = emitted

	if fatalFile != "" {
		report.FailedFile = fatalFile
		return report, storeerr.NewDumpParseFailure(fatalFile)
	}
	if workerErr != nil {
		return report, fmt.Errorf("batch worker: %w", workerErr)
	}
	if cErr != nil {
		return report, fmt.Errorf("commit stage: %w", cErr)
	}
	if ctx.Err() != nil {
		return report, storeerr.ErrCancelled
	}
	return report, nil
}

func (c *Coordinator) encodeAndSend(ctx context.Context, file string, batch []dump.Page, opts Options, out chan<- commitJob) error {
	pages := make([]chunkcodec.Page, len(batch))
	rows := make([]index.PageRow, len(batch))
	for i, p := range batch {
		cp := toChunkPage(p)
		pages[i] = cp
		rows[i] = toIndexRow(cp, uint32(i), opts.NamespaceRules)
	}

	select {
	case out <- commitJob{file: file, pages: pages, rows: rows}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func readBatch(r *dump.Reader, size int) ([]dump.Page, int, error) {
	batch := make([]dump.Page, 0, size)
	for len(batch) < size {
		p, err := r.Next()
		if err == io.EOF {
			return batch, len(batch), io.EOF
		}
		if err != nil {
			return batch, len(batch), err
		}
		batch = append(batch, p)
	}
	return batch, len(batch), nil
}

func enumerateJobFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, fmt.Errorf("enumerate job directory %s: %w", dir, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func newProgressBar(total int64) *pb.ProgressBar {
	if total <= 0 {
		bar := pb.New64(0)
		bar.SetTemplateString(`{{counters . }} pages imported`)
		return bar.Start()
	}
	return pb.StartNew(int(total))
}
