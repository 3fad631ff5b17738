package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// ============================================================================
// TEXT BUILDER — Shares, narratives, and caption placeholders
// ============================================================================

// BuildShares sums measure per dimension value and reports each value's
// percentage of the total, largest first.
func BuildShares(view RecordView, dimension, measure string) []Share {
	groups := GroupAndAggregate(view, []string{dimension}, measure, AggSum, SortValueDesc, 0)
	if len(groups) == 0 {
		return nil
	}

	var total float64
	for _, g := range groups {
		total += g.Value
	}

	shares := make([]Share, 0, len(groups))
	for _, g := range groups {
		var pct float64
		if total > 0 {
			pct = g.Value / total * 100
		}
		shares = append(shares, Share{Label: g.Label, Value: g.Value, Percent: RoundTo2(pct)})
	}
	return shares
}

// FormatPercent renders a percentage with up to two decimals ("48.56%", "3%").
func FormatPercent(pct float64) string {
	s := fmt.Sprintf("%.2f", pct)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + "%"
}

// DescribeShares joins the first n shares as "label **pct**" phrases.
// names maps raw labels to display names; unknown labels are used as-is.
func DescribeShares(shares []Share, n int, names map[string]string) string {
	if n > len(shares) {
		n = len(shares)
	}
	parts := make([]string, 0, n)
	for _, s := range shares[:n] {
		label := s.Label
		if name, ok := names[label]; ok {
			label = name
		}
		parts = append(parts, fmt.Sprintf("%s **%s**", label, FormatPercent(s.Percent)))
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}

// ============================================================================
// PLACEHOLDER RESOLUTION
// ============================================================================

var placeholderRegex = regexp.MustCompile(`\{[a-z_]+\}`)

// ResolvePlaceholders substitutes {name} tokens in a caption template.
// Tokens without a value are stripped.
func ResolvePlaceholders(template string, values map[string]string) string {
	result := template
	for name, value := range values {
		result = strings.ReplaceAll(result, "{"+name+"}", value)
	}
	return stripUnresolvedPlaceholders(result)
}

func stripUnresolvedPlaceholders(text string) string {
	if !placeholderRegex.MatchString(text) {
		return text
	}
	cleaned := placeholderRegex.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimRight(cleaned, " .—-–")
	if cleaned == "" {
		return text
	}
	return cleaned
}
