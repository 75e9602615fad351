// Package components holds the form pieces shared by console pages.
package components

import (
	"maps"
	"slices"
)

// sortedMessages orders field messages by field name so the summary is stable
func sortedMessages(errs map[string]string) []string {
	msgs := make([]string, 0, len(errs))
	for _, field := range slices.Sorted(maps.Keys(errs)) {
		msgs = append(msgs, errs[field])
	}
	return msgs
}
