// Package cronaudit extracts cron schedules from GitHub Actions workflow
// files so the externally scheduled jobs in a repository can be reviewed in
// one place.
package cronaudit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	appLog "linetoday/internal/log"
)

// ErrNoWorkflows is returned when the repository has no workflows directory.
var ErrNoWorkflows = errors.New("no .github/workflows directory")

// CronEntry is one cron expression found in a workflow, validated against
// the standard five-field syntax.
type CronEntry struct {
	Expr string
	// Next is the next firing time in UTC; zero when the expression did
	// not parse.
	Next time.Time
	// Err holds the parse error text for an invalid expression.
	Err string
}

// Workflow summarizes one workflow file.
type Workflow struct {
	File  string
	Name  string
	Crons []CronEntry
}

// Scan reads every *.yml / *.yaml under root/.github/workflows, sorted by
// file name. now anchors the next-firing computation.
func Scan(root string, now time.Time) ([]Workflow, error) {
	dir := filepath.Join(root, ".github", "workflows")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w under %s", ErrNoWorkflows, root)
		}
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yml" || ext == ".yaml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	out := make([]Workflow, 0, len(files))
	for _, name := range files {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			appLog.Warn("skipping unreadable workflow", "err", err, "file", path)
			continue
		}
		out = append(out, parseWorkflow(filepath.Join(".github", "workflows", name), data, now))
	}
	return out, nil
}

// parseWorkflow walks the YAML document as nodes rather than unmarshalling
// into structs: the `on:` key resolves to a boolean under YAML 1.1 rules,
// so key matching has to happen on the raw scalar text.
func parseWorkflow(relPath string, data []byte, now time.Time) Workflow {
	wf := Workflow{File: relPath, Name: "(no name)"}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		appLog.Warn("workflow is not valid YAML", "err", err, "file", relPath)
		return wf
	}
	if len(doc.Content) == 0 {
		return wf
	}
	root := doc.Content[0]

	if n := mappingValue(root, "name"); n != nil && n.Value != "" {
		wf.Name = n.Value
	}

	schedule := mappingValue(mappingValue(root, "on"), "schedule")
	if schedule == nil || schedule.Kind != yaml.SequenceNode {
		return wf
	}

	for _, item := range schedule.Content {
		c := mappingValue(item, "cron")
		if c == nil || strings.TrimSpace(c.Value) == "" {
			continue
		}
		wf.Crons = append(wf.Crons, validate(strings.TrimSpace(c.Value), now))
	}
	return wf
}

func validate(expr string, now time.Time) CronEntry {
	entry := CronEntry{Expr: expr}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		entry.Err = err.Error()
		return entry
	}
	entry.Next = sched.Next(now.UTC())
	return entry
}

// mappingValue returns the value node for key in a mapping node, matching
// the key's source text case-insensitively. Returns nil for non-mappings.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil {
		return nil
	}
	// Unwrap a document node if one slips through.
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if strings.EqualFold(n.Content[i].Value, key) {
			return n.Content[i+1]
		}
	}
	return nil
}
