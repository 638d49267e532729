package slugify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugifyFoldsSpacesAndCapitalisesFirstLetter(t *testing.T) {
	require.Equal(t, "Science_fiction_film", Slugify("science fiction film", nil))
}

func TestSlugifyIsIdempotentOnUnderscoredInput(t *testing.T) {
	require.Equal(t, "The_Matrix", Slugify("The_Matrix", nil))
	require.Equal(t, "The_Matrix", Slugify("The Matrix", nil))
}

func TestSlugifyPercentDecodes(t *testing.T) {
	require.Equal(t, "Café", Slugify("Caf%C3%A9", nil))
}

func TestSlugifyCaseSensitiveRule(t *testing.T) {
	require.Equal(t, "lowercasePage", Slugify("lowercasePage", CaseSensitive))
}

func TestNamespaceRulesDefaultsToFirstLetterUpper(t *testing.T) {
	rules := NamespaceRules{}
	require.Equal(t, "Foo", Slugify("foo", rules.RuleFor(0)))
}

func TestNamespaceRulesOverride(t *testing.T) {
	rules := NamespaceRules{2: CaseSensitive}
	require.Equal(t, "userPage", Slugify("userPage", rules.RuleFor(2)))
	require.Equal(t, "Foo", Slugify("foo", rules.RuleFor(0)))
}
