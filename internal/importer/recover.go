package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"wikistore/internal/chunkstore"
	"wikistore/internal/index"
)

// Recover reconciles chunk_wip against the chunk directory, per the
// startup recovery procedure: for each pending chunk ID, a committed
// file on disk means step 4 of the commit protocol never finished and is
// completed now (reconstructing the index rows straight from the
// committed chunk bytes, since upserts are idempotent); no file means
// the batch never made it past the temp-write stage, so its
// work-in-progress marker is simply discarded. Any still-orphaned temp
// files left over afterwards are leaked writes from a crash and are
// removed unconditionally.
func (c *Coordinator) Recover(ctx context.Context) error {
	pending, err := c.idx.PendingWIP(ctx)
	if err != nil {
		return fmt.Errorf("list pending chunks: %w", err)
	}

	for _, chunkID := range pending {
		if err := c.recoverOne(ctx, chunkID); err != nil {
			return fmt.Errorf("recover chunk %d: %w", chunkID, err)
		}
	}

	return sweepOrphanTempFiles(c.store)
}

func (c *Coordinator) recoverOne(ctx context.Context, chunkID uint64) error {
	committed, err := c.idx.ChunkCommitted(ctx, chunkID)
	if err != nil {
		return err
	}
	if committed {
		return c.idx.DiscardWIP(ctx, chunkID)
	}

	if !c.store.Exists(chunkstore.ChunkID(chunkID)) {
		c.log.Info("discarding chunk with no on-disk file", "chunk_id", chunkID)
		return c.idx.DiscardWIP(ctx, chunkID)
	}

	c.log.Info("completing interrupted commit", "chunk_id", chunkID)
	mc, err := c.store.Map(chunkstore.ChunkID(chunkID))
	if err != nil {
		return fmt.Errorf("map chunk for recovery: %w", err)
	}
	defer mc.Close()

	rows, err := rowsFromView(mc.View(), c.namespaceRules)
	if err != nil {
		return fmt.Errorf("reconstruct rows from chunk: %w", err)
	}

	tx, err := c.idx.BeginWrite(ctx)
	if err != nil {
		return fmt.Errorf("begin recovery finalize transaction: %w", err)
	}
	defer tx.Rollback()

	if err := index.FinalizeChunk(ctx, tx, chunkID, c.store.Path(chunkstore.ChunkID(chunkID)), rows); err != nil {
		return fmt.Errorf("finalize recovered chunk %d: %w", chunkID, err)
	}
	return tx.Commit()
}

func sweepOrphanTempFiles(store *chunkstore.Store) error {
	entries, err := os.ReadDir(store.TempDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("scan temp directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(store.TempDir(), e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove orphan temp file %s: %w", path, err)
		}
	}
	return nil
}

func removeAllChunkFiles(store *chunkstore.Store) error {
	matches, err := filepath.Glob(filepath.Join(store.Dir(), "articles-*.dat"))
	if err != nil {
		return fmt.Errorf("glob chunk files: %w", err)
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove chunk file %s: %w", path, err)
		}
	}
	return sweepOrphanTempFiles(store)
}
