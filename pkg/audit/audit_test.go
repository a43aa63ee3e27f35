package audit

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newLogger(t *testing.T, rotation RotationConfig) (*FileLogger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit", "history.log")
	l, err := NewFileLogger(path, rotation)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, path
}

func TestNewEvent(t *testing.T) {
	e := NewEvent("dut1", "saiserver", OpDeploy)
	if e.ID == "" || e.Timestamp.IsZero() || e.PID != os.Getpid() {
		t.Errorf("NewEvent() = %+v", e)
	}
	if !e.Success || e.Summary() != "deploy" {
		t.Errorf("new event success=%v summary=%q", e.Success, e.Summary())
	}

	e.WithError(nil)
	if !e.Success {
		t.Error("WithError(nil) marked the event failed")
	}
	e.WithError(errors.New("pull failed")).WithDuration(time.Minute)
	if e.Success || e.Error != "pull failed" || e.Duration != time.Minute {
		t.Errorf("failed event = %+v", e)
	}
	if e.Summary() != "deploy failed: pull failed" {
		t.Errorf("Summary() = %q", e.Summary())
	}

	tr := NewTransition("dut1", "syncd", "READY", "TEARING_DOWN")
	if tr.Operation != OpTransition || tr.Summary() != "READY -> TEARING_DOWN" {
		t.Errorf("transition = %+v, summary %q", tr, tr.Summary())
	}
}

func TestFileLogger_Query(t *testing.T) {
	l, _ := newLogger(t, RotationConfig{})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []*Event{
		NewEvent("dut1", "saiserver", OpDeploy),
		NewTransition("dut1", "saiserver", "UNDEPLOYED", "DEPLOYING"),
		NewEvent("dut2", "syncd", OpDeploy).WithError(errors.New("unsupported")),
		NewEvent("dut1", "saiserver", OpRevert),
	}
	for i, e := range events {
		e.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if err := l.Log(e); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"deploy", "transition", "deploy", "revert"}},
		{"dut", Filter{DUT: "dut1"}, []string{"deploy", "transition", "revert"}},
		{"container", Filter{Container: "syncd"}, []string{"deploy"}},
		{"operation", Filter{Operation: OpDeploy}, []string{"deploy", "deploy"}},
		{"failures", Filter{FailureOnly: true}, []string{"deploy"}},
		{"since", Filter{StartTime: base.Add(2 * time.Minute)}, []string{"deploy", "revert"}},
		{"until", Filter{EndTime: base.Add(time.Minute)}, []string{"deploy", "transition"}},
		{"newest", Filter{Limit: 2}, []string{"deploy", "revert"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Query(tt.filter)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			var ops []string
			for _, e := range got {
				ops = append(ops, e.Operation)
			}
			if strings.Join(ops, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Query() = %v, want %v", ops, tt.want)
			}
		})
	}
}

func TestFileLogger_SkipsMalformed(t *testing.T) {
	l, path := newLogger(t, RotationConfig{})
	if err := l.Log(NewEvent("dut1", "saiserver", OpDeploy)); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("not json\n")
	f.Close()

	got, err := l.Query(Filter{})
	if err != nil || len(got) != 1 {
		t.Errorf("Query() = %d events, %v", len(got), err)
	}
}

func TestFileLogger_Rotation(t *testing.T) {
	l, path := newLogger(t, RotationConfig{MaxSize: 1, MaxBackups: 2})

	for i := 0; i < 5; i++ {
		if err := l.Log(NewEvent("dut1", "saiserver", OpDeploy)); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}
	rotated, err := filepath.Glob(path + ".*")
	if err != nil {
		t.Fatal(err)
	}
	if len(rotated) != 2 {
		t.Errorf("%d rotated files kept, want 2: %v", len(rotated), rotated)
	}
	got, err := l.Query(Filter{})
	if err != nil || len(got) != 1 {
		t.Errorf("current file holds %d events, %v; want 1", len(got), err)
	}
}
