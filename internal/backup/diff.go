package backup

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffResult summarizes how an imported layout differs from the current
// one, shown as a preview before the import is applied.
type DiffResult struct {
	Lines1      int     `json:"lines_current"`
	Lines2      int     `json:"lines_incoming"`
	Similarity  float64 `json:"similarity"`
	UnifiedDiff string  `json:"diff,omitempty"`
}

// PreviewDiff compares the current and incoming layout documents.
func PreviewDiff(current, incoming []byte) *DiffResult {
	dmp := diffmatchpatch.New()
	c, i := string(current), string(incoming)

	diffs := dmp.DiffMain(c, i, true)

	dist := dmp.DiffLevenshtein(diffs)
	maxLen := len(c)
	if len(i) > maxLen {
		maxLen = len(i)
	}
	similarity := 1.0
	if maxLen > 0 {
		similarity = 1.0 - float64(dist)/float64(maxLen)
	}

	patches := dmp.PatchMake(c, diffs)

	return &DiffResult{
		Lines1:      len(strings.Split(c, "\n")),
		Lines2:      len(strings.Split(i, "\n")),
		Similarity:  similarity,
		UnifiedDiff: dmp.PatchToText(patches),
	}
}
