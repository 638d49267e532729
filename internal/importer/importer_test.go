package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"wikistore/internal/chunkcodec"
	"wikistore/internal/chunkstore"
	"wikistore/internal/index"
	"wikistore/internal/slugify"
	"wikistore/internal/storeerr"
)

func dumpPage(id int64, title, text string) string {
	return `  <page>
    <title>` + title + `</title>
    <ns>0</ns>
    <id>` + itoa(id) + `</id>
    <revision>
      <id>` + itoa(id) + `</id>
      <timestamp>2020-01-01T00:00:00Z</timestamp>
      <text>` + text + `</text>
    </revision>
  </page>
`
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func writeDumpFile(t *testing.T, dir, name string, pages ...string) string {
	t.Helper()
	var body string
	body = "<mediawiki>\n"
	for _, p := range pages {
		body += p
	}
	body += "</mediawiki>\n"
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

type testEnv struct {
	store *chunkstore.Store
	idx   *index.Index
	coord *Coordinator
	jobs  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	jobs := filepath.Join(root, "jobs")
	require.NoError(t, os.MkdirAll(jobs, 0o755))

	store, err := chunkstore.Open(chunkstore.Config{Dir: root})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	idx, err := index.Open(index.Config{Path: filepath.Join(root, "index.db")})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	coord := New(store, idx, nil, slugify.NamespaceRules{})
	return &testEnv{store: store, idx: idx, coord: coord, jobs: jobs}
}

func TestRunImportsPagesAndCategories(t *testing.T) {
	env := newTestEnv(t)
	writeDumpFile(t, env.jobs, "dump-000.xml",
		dumpPage(1, "The Matrix", "[[Category:1999 films]]"),
		dumpPage(2, "Inception", "[[Category:2010 films]][[Category:1999 films]]"),
	)

	report, err := env.coord.Run(context.Background(), Options{JobDir: env.jobs, PagesPerChunk: 10, Parallelism: 2})
	require.NoError(t, err)
	require.EqualValues(t, 2, report.PagesImported)
	require.Equal(t, 1, report.BatchesCommitted)

	ctx := context.Background()
	loc, ok, err := env.idx.LookupByID(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 0, loc.SlotIndex)

	matches, err := env.idx.LookupBySlug(ctx, "The_Matrix")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	hits, err := env.idx.ListCategory(ctx, "1999_films", nil, 100)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	mc, err := env.store.Map(chunkstore.ChunkID(loc.ChunkID))
	require.NoError(t, err)
	defer mc.Close()
	pv, err := mc.View().Page(int(loc.SlotIndex))
	require.NoError(t, err)
	require.Equal(t, "The Matrix", pv.Title())
}

func TestRunRespectsPagesPerChunkBoundary(t *testing.T) {
	env := newTestEnv(t)
	writeDumpFile(t, env.jobs, "dump-000.xml",
		dumpPage(1, "A", "x"),
		dumpPage(2, "B", "x"),
		dumpPage(3, "C", "x"),
	)

	report, err := env.coord.Run(context.Background(), Options{JobDir: env.jobs, PagesPerChunk: 1, Parallelism: 4})
	require.NoError(t, err)
	require.Equal(t, 3, report.BatchesCommitted)
}

func TestRunIsIdempotentOnReimport(t *testing.T) {
	env := newTestEnv(t)
	writeDumpFile(t, env.jobs, "dump-000.xml", dumpPage(1, "A", "[[Category:Cat]]"))

	opts := Options{JobDir: env.jobs, PagesPerChunk: 10, Parallelism: 1}
	_, err := env.coord.Run(context.Background(), opts)
	require.NoError(t, err)
	_, err = env.coord.Run(context.Background(), opts)
	require.NoError(t, err)

	hits, err := env.idx.ListCategory(context.Background(), "Cat", nil, 100)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestRecoverCompletesInterruptedCommit(t *testing.T) {
	env := newTestEnv(t)
	writeDumpFile(t, env.jobs, "dump-000.xml", dumpPage(1, "A", "[[Category:Cat]]"))

	_, err := env.coord.Run(context.Background(), Options{JobDir: env.jobs, PagesPerChunk: 10, Parallelism: 1})
	require.NoError(t, err)

	// Simulate a crash between the chunk rename and the finalize
	// transaction: allocate a fresh chunk id, write and commit its file,
	// but never run the finalize transaction that would normally follow.
	ctx := context.Background()
	tx, err := env.idx.BeginWrite(ctx)
	require.NoError(t, err)
	chunkID, err := index.AllocateChunkID(ctx, tx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	pages := []chunkcodec.Page{{MediaWikiID: 2, NamespaceID: 0, Title: "B", RevisionID: 1, Wikitext: "[[Category:Cat2]]"}}
	tmp, err := env.store.WriteTemp(pages)
	require.NoError(t, err)
	_, err = env.store.Commit(tmp, chunkstore.ChunkID(chunkID))
	require.NoError(t, err)

	require.NoError(t, env.coord.Recover(ctx))

	committed, err := env.idx.ChunkCommitted(ctx, chunkID)
	require.NoError(t, err)
	require.True(t, committed)

	pending, err := env.idx.PendingWIP(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestRecoverDiscardsWipWithNoChunkFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tx, err := env.idx.BeginWrite(ctx)
	require.NoError(t, err)
	chunkID, err := index.AllocateChunkID(ctx, tx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.NoError(t, env.coord.Recover(ctx))

	pending, err := env.idx.PendingWIP(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
	_ = chunkID
}

func TestRunReturnsConflictWhenLockAlreadyHeld(t *testing.T) {
	env := newTestEnv(t)
	writeDumpFile(t, env.jobs, "dump-000.xml", dumpPage(1, "A", "x"))

	held, err := env.store.TryLock()
	require.NoError(t, err)
	require.True(t, held)
	defer env.store.Unlock()

	_, err = env.coord.Run(context.Background(), Options{JobDir: env.jobs, PagesPerChunk: 10, Parallelism: 1})
	require.Equal(t, storeerr.KindConflict, storeerr.ErrorKind(err))
}

func TestRunCancellationStopsImport(t *testing.T) {
	env := newTestEnv(t)
	pages := make([]string, 0, 50)
	for i := int64(1); i <= 50; i++ {
		pages = append(pages, dumpPage(i, "P", "x"))
	}
	writeDumpFile(t, env.jobs, "dump-000.xml", pages...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.coord.Run(ctx, Options{JobDir: env.jobs, PagesPerChunk: 5, Parallelism: 2})
	require.Error(t, err)
}
