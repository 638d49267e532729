package chunkstore

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"wikistore/internal/chunkcodec"
)

func testPages() []chunkcodec.Page {
	return []chunkcodec.Page{
		{MediaWikiID: 1, NamespaceID: 0, Title: "A", RevisionID: 1, Wikitext: "hello"},
		{MediaWikiID: 2, NamespaceID: 0, Title: "B", RevisionID: 1, Wikitext: "world"},
	}
}

func TestWriteTempThenCommitThenMap(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Lock())
	defer s.Unlock()

	tmp, err := s.WriteTemp(testPages())
	require.NoError(t, err)
	require.FileExists(t, tmp)

	final, err := s.Commit(tmp, ChunkID(7))
	require.NoError(t, err)
	require.FileExists(t, final)
	_, err = os.Stat(tmp)
	require.True(t, os.IsNotExist(err))

	mc, err := s.Map(ChunkID(7))
	require.NoError(t, err)
	defer mc.Close()

	require.Equal(t, 2, mc.View().Count())
	p0, err := mc.View().Page(0)
	require.NoError(t, err)
	require.Equal(t, "A", p0.Title())
}

func TestMapSharesMappingAcrossHandles(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	defer s.Close()

	tmp, err := s.WriteTemp(testPages())
	require.NoError(t, err)
	_, err = s.Commit(tmp, ChunkID(1))
	require.NoError(t, err)

	mc1, err := s.Map(ChunkID(1))
	require.NoError(t, err)
	mc2, err := s.Map(ChunkID(1))
	require.NoError(t, err)
	require.Same(t, mc1.mapping, mc2.mapping)

	require.NoError(t, mc1.Close())
	require.NoError(t, mc2.Close())
}

func TestMapMissingChunkReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Map(ChunkID(999))
	require.ErrorIs(t, err, ErrChunkNotFound)
}

func TestDiscardTempRemovesFile(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	defer s.Close()

	tmp, err := s.WriteTemp(testPages())
	require.NoError(t, err)
	require.NoError(t, s.DiscardTemp(tmp))
	_, err = os.Stat(tmp)
	require.True(t, os.IsNotExist(err))
}

func TestSecondTryLockFails(t *testing.T) {
	dir := t.TempDir()
	s1, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	defer s1.Close()

	s2, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	defer s2.Close()

	require.NoError(t, s1.Lock())
	ok, err := s2.TryLock()
	require.NoError(t, err)
	require.False(t, ok)
}
