package report_test

import (
	"testing"

	"abcbizreport/internal/report"
)

func TestCompare(t *testing.T) {
	t.Parallel()

	base := []byte("header\nAngeles,313018426,Active\nSmith,42,Expired\n")
	head := []byte("header\nAngeles,313018426,Expired\nSmith,42,Expired\nRoe,7,Active\n")

	changes := report.Compare(base, head)

	var added, removed []string
	for _, c := range changes {
		switch c.Type {
		case "added":
			added = append(added, c.Content)
		case "removed":
			removed = append(removed, c.Content)
		default:
			t.Errorf("unexpected change type %q", c.Type)
		}
	}

	if len(removed) != 1 || removed[0] != "Angeles,313018426,Active" {
		t.Errorf("removed = %v", removed)
	}
	wantAdded := map[string]bool{
		"Angeles,313018426,Expired": true,
		"Roe,7,Active":              true,
	}
	if len(added) != len(wantAdded) {
		t.Fatalf("added = %v", added)
	}
	for _, line := range added {
		if !wantAdded[line] {
			t.Errorf("unexpected added line %q", line)
		}
	}
}

func TestCompareIdentical(t *testing.T) {
	t.Parallel()

	data := []byte("header\nrow one\nrow two\n")
	if changes := report.Compare(data, data); len(changes) != 0 {
		t.Errorf("changes = %v, want none", changes)
	}
}

func TestCompareEmptyBase(t *testing.T) {
	t.Parallel()

	changes := report.Compare(nil, []byte("only line\n"))
	if len(changes) != 1 || changes[0].Type != "added" || changes[0].Content != "only line" {
		t.Errorf("changes = %+v", changes)
	}
}
