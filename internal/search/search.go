// Package search filters the two dictionaries by term.
package search

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/ppiankov/srtctl/internal/model"
)

// Filter returns the entries whose key contains query, ignoring case.
// Values are not searched. A blank query matches nothing. The inputs are
// never modified.
func Filter(query string, scope model.SearchScope, correction, protection model.Dictionary) model.SearchResults {
	out := model.EmptySearchResults()

	needle := fold(strings.TrimSpace(query))
	if needle == "" {
		return out
	}

	if scope.Includes(model.KindCorrection) {
		match(needle, correction, out.Correction)
	}
	if scope.Includes(model.KindProtection) {
		match(needle, protection, out.Protection)
	}
	return out
}

func match(needle string, src, dst model.Dictionary) {
	for k, v := range src {
		if strings.Contains(fold(k), needle) {
			dst[k] = v
		}
	}
}

// fold applies Unicode case folding. A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
