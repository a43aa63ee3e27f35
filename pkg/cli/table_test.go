package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "CONTAINER", "STATE")
	tbl.Flush()
	if buf.Len() != 0 {
		t.Errorf("empty table wrote %q", buf.String())
	}
}

func TestTableRows(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "CONTAINER", "STATE")
	tbl.Row("saiserver", "READY")
	tbl.Row("syncd", "UNDEPLOYED")
	tbl.Flush()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "CONTAINER") || !strings.HasPrefix(lines[1], "---------") {
		t.Errorf("unexpected header block:\n%s", buf.String())
	}
	if strings.Index(lines[2], "READY") != strings.Index(lines[0], "STATE") {
		t.Errorf("columns not aligned:\n%s", buf.String())
	}
}
