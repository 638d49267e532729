package importer

import (
	"context"
	"fmt"

	"github.com/cheggaaa/pb/v3"

	"wikistore/internal/chunkstore"
	"wikistore/internal/index"
)

// runCommitter is the pipeline's single serialised committer: every
// batch's final write, in whatever order the parallel workers finished
// it, is applied here one at a time via the crash-safe commit protocol.
func (c *Coordinator) runCommitter(ctx context.Context, jobs <-chan commitJob, report *Report, bar *pb.ProgressBar, done chan<- error) {
	for job := range jobs {
		if err := c.commitOne(ctx, job); err != nil {
			done <- fmt.Errorf("commit batch from %s: %w", job.file, err)
			// Drain remaining jobs so encodeAndSend's channel send never
			// blocks forever after the pipeline has decided to abort.
			for range jobs {
			}
			return
		}
		report.BatchesCommitted++
		bar.Add(len(job.pages))
	}
	done <- nil
}

// commitOne executes the four-step protocol in internal/importer's
// commit.go: allocate a chunk ID under a short transaction, write and
// fsync the temp file, rename it into place and fsync the directory,
// then finalise the index rows under a second transaction. A transient
// I/O failure in steps 2-3 is retried a bounded number of times before
// the batch is abandoned.
func (c *Coordinator) commitOne(ctx context.Context, job commitJob) error {
	tx1, err := c.idx.BeginWrite(ctx)
	if err != nil {
		return fmt.Errorf("begin allocation transaction: %w", err)
	}
	chunkID, err := index.AllocateChunkID(ctx, tx1)
	if err != nil {
		tx1.Rollback()
		return fmt.Errorf("allocate chunk id: %w", err)
	}
	if err := tx1.Commit(); err != nil {
		return fmt.Errorf("commit allocation transaction: %w", err)
	}

	tempPath, finalPath, err := c.writeAndRenameWithRetry(job, chunkstore.ChunkID(chunkID))
	if err != nil {
		// The chunk_wip row stays behind; startup recovery will discard
		// it since no committed file exists for this chunk ID.
		return fmt.Errorf("write chunk %d: %w", chunkID, err)
	}
	_ = tempPath

	for i := range job.rows {
		job.rows[i].ChunkID = chunkID
	}

	tx2, err := c.idx.BeginWrite(ctx)
	if err != nil {
		return fmt.Errorf("begin finalize transaction: %w", err)
	}
	if err := index.FinalizeChunk(ctx, tx2, chunkID, finalPath, job.rows); err != nil {
		tx2.Rollback()
		return fmt.Errorf("finalize chunk %d: %w", chunkID, err)
	}
	if err := tx2.Commit(); err != nil {
		return fmt.Errorf("commit finalize transaction: %w", err)
	}
	return nil
}

func (c *Coordinator) writeAndRenameWithRetry(job commitJob, id chunkstore.ChunkID) (tempPath, finalPath string, err error) {
	for attempt := 0; attempt <= maxTransientRetries; attempt++ {
		tempPath, err = c.store.WriteTemp(job.pages)
		if err != nil {
			c.log.Warn("transient chunk write failure, retrying", "attempt", attempt, "err", err)
			continue
		}
		finalPath, err = c.store.Commit(tempPath, id)
		if err != nil {
			c.store.DiscardTemp(tempPath)
			c.log.Warn("transient chunk commit failure, retrying", "attempt", attempt, "err", err)
			continue
		}
		return tempPath, finalPath, nil
	}
	return "", "", fmt.Errorf("exceeded %d retries: %w", maxTransientRetries, err)
}

// Clear truncates the index and then removes every chunk file, per the
// bulk clear operation's documented ordering (index first).
func (c *Coordinator) Clear(ctx context.Context) error {
	if err := c.idx.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	if err := removeAllChunkFiles(c.store); err != nil {
		return fmt.Errorf("remove chunk files: %w", err)
	}
	return nil
}
