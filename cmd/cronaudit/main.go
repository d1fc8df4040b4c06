// Command cronaudit lists the cron schedules declared in a repository's
// GitHub Actions workflows, with each expression validated and its next
// firing time shown in UTC.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"linetoday/internal/cronaudit"
)

func main() {
	dir := flag.String("dir", ".", "Repository root to scan")
	flag.Parse()

	os.Exit(run(*dir))
}

func run(root string) int {
	workflows, err := cronaudit.Scan(root, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(workflows) == 0 {
		fmt.Fprintln(os.Stderr, "No workflow files found")
		return 1
	}

	title := color.New(color.FgCyan, color.Bold).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	fmt.Println(title("# GitHub Actions Cron Audit"))
	fmt.Println()
	for _, wf := range workflows {
		fmt.Printf("- file: %s\n", wf.File)
		fmt.Printf("  name: %s\n", wf.Name)
		if len(wf.Crons) == 0 {
			fmt.Println("  crons: []")
			fmt.Println()
			continue
		}
		fmt.Println("  crons:")
		for _, c := range wf.Crons {
			if c.Err != "" {
				fmt.Printf("    - %s (%s)\n", c.Expr, bad("invalid: "+c.Err))
				continue
			}
			fmt.Printf("    - %s (next %s)\n", c.Expr, c.Next.Format(time.RFC3339))
		}
		fmt.Println()
	}
	return 0
}
