package wikistore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDump = `<mediawiki>
  <page>
    <title>The Matrix</title>
    <ns>0</ns>
    <id>30007</id>
    <revision>
      <id>1</id>
      <timestamp>2020-01-01T00:00:00Z</timestamp>
      <text>[[Category:1999 films]]</text>
    </revision>
  </page>
  <page>
    <title>Mercury</title>
    <ns>0</ns>
    <id>1</id>
    <revision>
      <id>1</id>
      <text>first planet</text>
    </revision>
  </page>
  <page>
    <title>Mercury</title>
    <ns>14</ns>
    <id>2</id>
    <revision>
      <id>1</id>
      <text>a category</text>
    </revision>
  </page>
</mediawiki>`

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := Open(Config{Root: root}, "testwiki")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, root
}

func writeJobFile(t *testing.T, dir string) string {
	t.Helper()
	jobDir := filepath.Join(dir, "jobs")
	require.NoError(t, os.MkdirAll(jobDir, 0o755))
	path := filepath.Join(jobDir, "dump-000.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDump), 0o644))
	return jobDir
}

func TestOpenImportAndQuery(t *testing.T) {
	s, root := openTestStore(t)
	jobDir := writeJobFile(t, root)

	report, err := s.Import(context.Background(), ImportOptions{JobDir: jobDir, PagesPerChunk: 10, Parallelism: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, report.PagesImported)

	page, err := s.GetPageByID(context.Background(), 30007)
	require.NoError(t, err)
	require.Equal(t, "The Matrix", page.Title)

	hits, err := s.ListCategory(context.Background(), "1999_films", nil, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, int64(30007), hits[0].MediaWikiID)

	found, err := s.SearchTitle(context.Background(), "The", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
}

func TestGetPageBySlugDisambiguatesAcrossNamespaces(t *testing.T) {
	s, root := openTestStore(t)
	jobDir := writeJobFile(t, root)

	_, err := s.Import(context.Background(), ImportOptions{JobDir: jobDir, PagesPerChunk: 10, Parallelism: 1})
	require.NoError(t, err)

	pages, err := s.GetPageBySlug(context.Background(), "Mercury")
	require.NoError(t, err)
	require.Len(t, pages, 2)

	namespaces := map[int32]bool{}
	for _, p := range pages {
		namespaces[p.NamespaceID] = true
	}
	require.True(t, namespaces[0])
	require.True(t, namespaces[14])
}

func TestGetPageByIDNotFound(t *testing.T) {
	s, _ := openTestStore(t)
	_, err := s.GetPageByID(context.Background(), 999)
	require.True(t, IsNotFound(err))
}

func TestClearEmptiesStore(t *testing.T) {
	s, root := openTestStore(t)
	jobDir := writeJobFile(t, root)

	_, err := s.Import(context.Background(), ImportOptions{JobDir: jobDir, PagesPerChunk: 10, Parallelism: 1})
	require.NoError(t, err)

	require.NoError(t, s.Clear(context.Background()))

	_, err = s.GetPageByID(context.Background(), 30007)
	require.True(t, IsNotFound(err))
}

func TestReopenRunsRecoveryWithoutError(t *testing.T) {
	s, root := openTestStore(t)
	jobDir := writeJobFile(t, root)

	_, err := s.Import(context.Background(), ImportOptions{JobDir: jobDir, PagesPerChunk: 10, Parallelism: 1})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(Config{Root: root}, "testwiki")
	require.NoError(t, err)
	defer s2.Close()

	page, err := s2.GetPageByID(context.Background(), 30007)
	require.NoError(t, err)
	require.Equal(t, "The Matrix", page.Title)
}
