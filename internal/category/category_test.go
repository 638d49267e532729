package category

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanExtractsSimpleCategoryLink(t *testing.T) {
	got := Scan("Some text [[Category:1999 films]] more text")
	require.Equal(t, []string{"1999_films"}, got)
}

func TestScanExtractsSortKeyVariant(t *testing.T) {
	got := Scan("[[Category:American films|Matrix, The]]")
	require.Equal(t, []string{"American_films"}, got)
}

func TestScanDeduplicatesAndPreservesOrder(t *testing.T) {
	got := Scan("[[Category:B]] [[category:A]] [[Category:B|sort]]")
	require.Equal(t, []string{"B", "A"}, got)
}

func TestScanIgnoresNonCategoryLinks(t *testing.T) {
	got := Scan("[[The Matrix]] has no categories here")
	require.Empty(t, got)
}

func TestScanDoesNotExpandTemplates(t *testing.T) {
	got := Scan("{{Infobox film|category=Category:1999 films}}")
	require.Empty(t, got)
}
