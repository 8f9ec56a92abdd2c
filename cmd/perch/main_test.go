package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/1broseidon/perch/internal/directory"
	"github.com/1broseidon/perch/internal/geom"
	"github.com/1broseidon/perch/internal/platform"
	"github.com/1broseidon/perch/internal/sim"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"much too long", 5, "much…"},
		{"ääääää", 3, "ää…"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := truncate(tt.in, tt.n); got != tt.want {
				t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestDiffSnapshotLogsChanges(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	first := directory.Snapshot{Records: []directory.Record{
		{ID: 10, Rect: geom.Rect{X: 0, Y: 0, Width: 400, Height: 300}, Title: "Editor"},
		{ID: 11, Rect: geom.Rect{X: 50, Y: 50, Width: 400, Height: 300}, Title: "Shell"},
	}}
	known := diffSnapshot(context.Background(), logger, map[platform.WindowID]directory.Record{}, first)
	if len(known) != 2 {
		t.Fatalf("expected 2 known windows, got %d", len(known))
	}
	if got := strings.Count(buf.String(), "window added"); got != 2 {
		t.Fatalf("expected 2 added lines, got %d:\n%s", got, buf.String())
	}

	buf.Reset()
	second := directory.Snapshot{Records: []directory.Record{
		{ID: 10, Rect: geom.Rect{X: 20, Y: 0, Width: 400, Height: 300}, Title: "Editor"},
	}}
	known = diffSnapshot(context.Background(), logger, known, second)
	if len(known) != 1 {
		t.Fatalf("expected 1 known window, got %d", len(known))
	}
	out := buf.String()
	if !strings.Contains(out, "window moved") || !strings.Contains(out, "window removed") {
		t.Fatalf("expected moved and removed lines, got:\n%s", out)
	}
}

func TestPrintTrace(t *testing.T) {
	var buf bytes.Buffer
	printTrace(&buf, "demo", []sim.TraceEntry{
		{Step: 0, Label: "press", Phase: "armed"},
		{Step: 1, Label: "sit", Phase: "snapped", Target: 10, TargetQuad: true, OtherQuads: 2, Moves: 3},
		{Step: 2, Label: "tray", Phase: "snapped", Target: 30, Taskbar: true},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "# demo" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[3], "snapped") || !strings.Contains(lines[3], " 3 ") {
		t.Fatalf("unexpected sit line %q", lines[3])
	}
	if !strings.Contains(lines[4], "30*") {
		t.Fatalf("taskbar target not marked: %q", lines[4])
	}
}

func TestParseWindowID(t *testing.T) {
	tests := []struct {
		in      string
		want    platform.WindowID
		wantErr bool
	}{
		{"42", 42, false},
		{"0x3a00007", 0x3a00007, false},
		{"0", 0, true},
		{"window", 0, true},
		{"-1", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseWindowID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseWindowID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("parseWindowID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
