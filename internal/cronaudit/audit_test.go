package cronaudit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeWorkflow(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, ".github", "workflows")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating workflows dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing workflow: %v", err)
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeWorkflow(t, root, "daily.yml", `name: Daily notify
on:
  schedule:
    - cron: "0 22 * * *"
    - cron: "not a cron"
  workflow_dispatch: {}
jobs: {}
`)
	writeWorkflow(t, root, "ci.yml", `name: CI
on: [push]
jobs: {}
`)

	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	workflows, err := Scan(root, now)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(workflows) != 2 {
		t.Fatalf("got %d workflows, want 2", len(workflows))
	}

	// Sorted by file name: ci.yml first.
	ci := workflows[0]
	if ci.Name != "CI" || len(ci.Crons) != 0 {
		t.Errorf("ci.yml = %+v, want no crons", ci)
	}

	daily := workflows[1]
	if daily.Name != "Daily notify" {
		t.Errorf("name = %q", daily.Name)
	}
	if len(daily.Crons) != 2 {
		t.Fatalf("got %d cron entries, want 2", len(daily.Crons))
	}

	valid := daily.Crons[0]
	if valid.Expr != "0 22 * * *" || valid.Err != "" {
		t.Errorf("valid entry = %+v", valid)
	}
	want := time.Date(2025, 1, 15, 22, 0, 0, 0, time.UTC)
	if !valid.Next.Equal(want) {
		t.Errorf("next firing = %v, want %v", valid.Next, want)
	}

	invalid := daily.Crons[1]
	if invalid.Err == "" {
		t.Error("invalid expression should carry a parse error")
	}
}

func TestScanMissingDirectory(t *testing.T) {
	_, err := Scan(t.TempDir(), time.Now())
	if err == nil {
		t.Fatal("expected an error without a workflows directory")
	}
	if !errors.Is(err, ErrNoWorkflows) {
		t.Errorf("err = %v, want ErrNoWorkflows", err)
	}
}

func TestScanUnnamedWorkflow(t *testing.T) {
	root := t.TempDir()
	writeWorkflow(t, root, "anon.yml", `on:
  schedule:
    - cron: "*/15 * * * *"
`)

	workflows, err := Scan(root, time.Now())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(workflows) != 1 || workflows[0].Name != "(no name)" {
		t.Fatalf("workflows = %+v", workflows)
	}
	if len(workflows[0].Crons) != 1 {
		t.Errorf("crons = %+v, want the schedule despite the bare on: key", workflows[0].Crons)
	}
}
