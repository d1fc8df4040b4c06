package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"linetoday/internal/config"
	"linetoday/internal/digest"
	"linetoday/internal/ics"
	"linetoday/internal/line"
	appLog "linetoday/internal/log"
)

const (
	// alertMaxLength bounds the alert text so a huge captured error never
	// hits the API's message limit.
	alertMaxLength = 1000
	// dumpLimit caps the number of rows --dump prints.
	dumpLimit = 200
)

type cliFlags struct {
	testMessage string
	alert       bool
	dump        bool
	icsPath     string
}

func main() {
	// A missing .env is fine; the real environment always wins.
	_ = godotenv.Load()

	flags := parseFlags()
	cfg := config.FromEnv()
	if flags.icsPath != "" {
		cfg.ICSPath = flags.icsPath
	}
	if cfg.Debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	os.Exit(run(flags, cfg))
}

func run(flags cliFlags, cfg *config.Config) int {
	now := time.Now().In(config.Timezone())

	if flags.dump {
		return runDump(cfg, now)
	}

	var text string
	switch {
	case flags.alert:
		text = cfg.AlertMessage
		if text == "" {
			text = "(empty)"
		}
		text = line.Clip(text, alertMaxLength)
	case flags.testMessage != "":
		text = flags.testMessage
	default:
		msg, err := buildDigest(cfg, now)
		if err != nil {
			appLog.Error("building digest failed", err, "ics_path", cfg.ICSPath)
			return 1
		}
		text = msg
	}

	if err := deliver(cfg, text); err != nil {
		appLog.Error("delivery failed", err)
		if flags.alert {
			// Alert delivery must never mask the failure it reports.
			return 0
		}
		return 1
	}
	return 0
}

// buildDigest runs the load → parse → expand → filter → format pipeline for
// the calendar day of now.
func buildDigest(cfg *config.Config, now time.Time) (string, error) {
	body, err := ics.Load(cfg.ICSPath)
	if err != nil {
		return "", err
	}
	events, err := ics.Parse(body, now.Location())
	if err != nil {
		return "", err
	}

	occs := ics.ExpandDay(events, now)
	todays := digest.FilterToday(occs, now)

	appLog.Info("events selected",
		"date", now.Format("2006-01-02"),
		"parsed", len(events),
		"matched", len(todays),
	)
	if p := digest.Preview(todays, now, 3); p != "" {
		appLog.Debug("digest preview", "events", p)
	}

	return digest.Format(todays, now, digest.Options{
		ShowMemo:      cfg.ShowMemo,
		ShowLinks:     cfg.ShowLinks,
		ShowEndTime:   cfg.ShowEndTime,
		MemoMaxLength: cfg.MemoMaxLength,
	}), nil
}

// newClient is a seam for tests to point delivery at a stub server.
var newClient = line.New

// deliver performs exactly one outbound attempt, after deciding dry-run on
// credential presence so no client is ever constructed without a token.
// The HTTP status of a completed send is reported, not acted on.
func deliver(cfg *config.Config, text string) error {
	route := "push"
	if cfg.UseBroadcast {
		route = "broadcast"
	}

	if cfg.AccessToken == "" {
		fmt.Printf("%s %s: credential unset, printing instead\n---\n%s\n",
			color.YellowString("[DRY RUN]"), strings.ToUpper(route), text)
		return nil
	}

	if !cfg.UseBroadcast && cfg.To == "" {
		return errors.New("LINE_TO is required for push delivery")
	}

	client := newClient(cfg.AccessToken)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		res line.Result
		err error
	)
	if cfg.UseBroadcast {
		res, err = client.Broadcast(ctx, text)
	} else {
		res, err = client.Push(ctx, cfg.To, text)
	}
	if err != nil {
		return err
	}

	appLog.Info("line send result", "route", res.Route, "status", res.Status, "ok", res.OK, "summary", res.Summary)
	if res.OK {
		fmt.Println(color.GreenString("sent via %s (status %d)", res.Route, res.Status))
	} else {
		fmt.Println(color.RedString("send not accepted (status %d): %s", res.Status, res.Summary))
	}
	return nil
}

// runDump prints every parsed event's normalized span plus match totals for
// today's window, without delivering anything.
func runDump(cfg *config.Config, now time.Time) int {
	body, err := ics.Load(cfg.ICSPath)
	if err != nil {
		appLog.Error("loading calendar failed", err, "ics_path", cfg.ICSPath)
		return 1
	}
	events, err := ics.Parse(body, now.Location())
	if err != nil {
		appLog.Error("parsing calendar failed", err, "ics_path", cfg.ICSPath)
		return 1
	}

	winStart, winEnd := ics.DayWindow(now)
	matched, adjusted := 0, 0
	for i, ev := range events {
		s, e, adj := ics.NormalizedSpan(ev)
		if adj {
			adjusted++
		}
		if e.After(winStart) && s.Before(winEnd) {
			matched++
		}
		if i < dumpLimit {
			summary := strings.Join(strings.Fields(ev.Summary), " ")
			if summary == "" {
				summary = "(無題)"
			}
			fmt.Printf("%s, %s, %t, %s\n", s.Format(time.RFC3339), e.Format(time.RFC3339), ev.AllDay, summary)
		}
	}
	fmt.Printf("adjusted zero-length spans: %d\n", adjusted)
	fmt.Printf("totals: all=%d, matched=%d\n", len(events), matched)
	return 0
}

func parseFlags() cliFlags {
	var flags cliFlags

	flag.StringVar(&flags.testMessage, "test", "", "Send this literal text instead of reading the calendar")
	flag.BoolVar(&flags.alert, "alert", false, "Send ALERT_MESSAGE from the environment; always exits 0")
	flag.BoolVar(&flags.dump, "dump", false, "Print normalized events and totals; do not send")
	flag.StringVar(&flags.icsPath, "ics", "", "Calendar export path (overrides ICS_PATH)")

	flag.Parse()

	return flags
}
