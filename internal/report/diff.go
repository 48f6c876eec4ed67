package report

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Change is one row-level difference between two report files.
type Change struct {
	Type    string `json:"type"` // "added" | "removed"
	Content string `json:"content"`
}

// Compare diffs two report files and returns the rows added to and removed
// from head relative to base. Uses the diffmatchpatch library with semantic
// cleanup so a changed cell reads as one removed plus one added row rather
// than character noise.
func Compare(base, head []byte) []Change {
	dmp := diffmatchpatch.New()

	baseLines, headLines, lines := dmp.DiffLinesToChars(string(base), string(head))
	diffs := dmp.DiffMain(baseLines, headLines, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)
	diffs = dmp.DiffCleanupSemantic(diffs)

	changes := make([]Change, 0)
	for _, d := range diffs {
		var changeType string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			changeType = "added"
		case diffmatchpatch.DiffDelete:
			changeType = "removed"
		case diffmatchpatch.DiffEqual:
			continue
		}

		for _, line := range strings.Split(d.Text, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			changes = append(changes, Change{Type: changeType, Content: line})
		}
	}
	return changes
}
