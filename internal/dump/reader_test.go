package dump

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleXML = `<mediawiki>
  <page>
    <title>The Matrix</title>
    <ns>0</ns>
    <id>30007</id>
    <revision>
      <id>1</id>
      <timestamp>2020-01-01T00:00:00Z</timestamp>
      <sha1>3i4g1x5z9q8v7u6t5s4r3q2p1o0n9m8</sha1>
      <text>[[Category:1999 films]]</text>
    </revision>
  </page>
  <page>
    <title>Redirected Page</title>
    <ns>0</ns>
    <id>42</id>
    <redirect title="The Matrix" />
    <revision>
      <id>2</id>
      <parentid>1</parentid>
      <text>#REDIRECT [[The Matrix]]</text>
    </revision>
  </page>
</mediawiki>`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleXML), 0o644))
	return path
}

func TestReaderParsesPagesInOrder(t *testing.T) {
	path := writeSample(t)
	r, err := Open(path, CompressionAuto, 0)
	require.NoError(t, err)
	defer r.Close()

	p1, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, int64(30007), p1.ID)
	require.Equal(t, "The Matrix", p1.Title)
	require.Equal(t, int32(0), p1.Namespace)
	require.True(t, p1.Revision.HasStamp)
	require.True(t, p1.Revision.HasSHA1)
	require.Contains(t, p1.Revision.Text, "Category:1999 films")

	p2, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, int64(42), p2.ID)
	require.Equal(t, "The Matrix", p2.RedirectTitle)
	require.True(t, p2.Revision.HasParent)
	require.Equal(t, int64(1), p2.Revision.ParentID)
	require.False(t, p2.Revision.HasStamp)

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReaderHonoursApproximatePageLimit(t *testing.T) {
	path := writeSample(t)
	r, err := Open(path, CompressionAuto, 1)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.NoError(t, err)

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReaderRejectsSubSecondTimestamp(t *testing.T) {
	const bad = `<mediawiki><page><title>T</title><ns>0</ns><id>1</id>
    <revision><id>1</id><timestamp>2020-01-01T00:00:00.500Z</timestamp><text>x</text></revision>
  </page></mediawiki>`
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.xml")
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))

	r, err := Open(path, CompressionAuto, 0)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestReaderRejectsTruncatedPage(t *testing.T) {
	const truncated = `<mediawiki><page><title>T</title><ns>0</ns><id>1</id>
    <revision><id>1</id><text>unterminated`
	dir := t.TempDir()
	path := filepath.Join(dir, "truncated.xml")
	require.NoError(t, os.WriteFile(path, []byte(truncated), 0o644))

	r, err := Open(path, CompressionAuto, 0)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestReaderRejectsMissingNamespace(t *testing.T) {
	const missingNS = `<mediawiki><page><title>T</title><id>1</id>
    <revision><id>1</id><text>x</text></revision>
  </page></mediawiki>`
	dir := t.TempDir()
	path := filepath.Join(dir, "missing-ns.xml")
	require.NoError(t, os.WriteFile(path, []byte(missingNS), 0o644))

	r, err := Open(path, CompressionAuto, 0)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestBase36SHA1RoundTrip(t *testing.T) {
	words, err := decodeBase36SHA1("3i4g1x5z9q8v7u6t5s4r3q2p1o0n9m8")
	require.NoError(t, err)
	back := EncodeBase36SHA1(words)
	words2, err := decodeBase36SHA1(back)
	require.NoError(t, err)
	require.Equal(t, words, words2)
}
