package slugify

// NamespaceRules maps a namespace ID to the CaseRule that namespace uses.
// Namespaces absent from the map default to FirstLetterUpper, which is
// the MediaWiki default ("case": "first-letter" in siteinfo) for the
// overwhelming majority of namespaces across wikis.
type NamespaceRules map[int32]CaseRule

// RuleFor returns the CaseRule configured for ns, or FirstLetterUpper.
func (n NamespaceRules) RuleFor(ns int32) CaseRule {
	if n == nil {
		return FirstLetterUpper
	}
	if rule, ok := n[ns]; ok {
		return rule
	}
	return FirstLetterUpper
}
