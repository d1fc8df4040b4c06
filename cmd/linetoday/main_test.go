package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"linetoday/internal/config"
	"linetoday/internal/line"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	_ = w.Close()
	data, _ := io.ReadAll(r)
	return string(data)
}

func TestDeliverDryRun(t *testing.T) {
	cfg := &config.Config{} // no token

	out := captureStdout(t, func() {
		if err := deliver(cfg, "ping"); err != nil {
			t.Errorf("dry-run must not fail: %v", err)
		}
	})

	if !strings.Contains(out, "[DRY RUN]") {
		t.Errorf("missing dry-run marker:\n%s", out)
	}
	if !strings.Contains(out, "ping") {
		t.Errorf("missing message text:\n%s", out)
	}
}

func TestDeliverBroadcastNeedsNoRecipient(t *testing.T) {
	var (
		gotPath string
		gotBody map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	orig := newClient
	newClient = func(token string) *line.Client {
		c := line.New(token)
		c.BaseURL = server.URL
		return c
	}
	t.Cleanup(func() { newClient = orig })

	cfg := &config.Config{AccessToken: "token", UseBroadcast: true, To: ""}
	out := captureStdout(t, func() {
		if err := deliver(cfg, "digest"); err != nil {
			t.Errorf("broadcast without LINE_TO must succeed: %v", err)
		}
	})

	if gotPath != "/v2/bot/message/broadcast" {
		t.Errorf("path = %q, want the broadcast endpoint", gotPath)
	}
	if _, hasTo := gotBody["to"]; hasTo {
		t.Error("broadcast payload must not carry a recipient")
	}
	if !strings.Contains(out, "sent via broadcast") {
		t.Errorf("missing operator confirmation:\n%s", out)
	}
}

func TestDeliverPushRequiresRecipient(t *testing.T) {
	cfg := &config.Config{AccessToken: "token", UseBroadcast: false, To: ""}

	// The recipient check fires before any client is built, so no network
	// call can happen here.
	if err := deliver(cfg, "x"); err == nil {
		t.Error("live push without LINE_TO must be an error")
	}
}

func TestRunTestMessageBypass(t *testing.T) {
	cfg := &config.Config{ICSPath: filepath.Join(t.TempDir(), "never-read.ics")}

	var code int
	out := captureStdout(t, func() {
		code = run(cliFlags{testMessage: "ping"}, cfg)
	})

	// The calendar file does not exist, yet the run succeeds: test mode
	// skips input handling entirely.
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(out, "ping") {
		t.Errorf("stdout missing the literal message:\n%s", out)
	}
}

func TestRunMissingInputIsFatal(t *testing.T) {
	cfg := &config.Config{ICSPath: filepath.Join(t.TempDir(), "absent.ics")}

	if code := run(cliFlags{}, cfg); code != 1 {
		t.Errorf("exit code = %d, want 1 for a missing calendar export", code)
	}
}

func TestRunAlertAlwaysSucceeds(t *testing.T) {
	// Push route with a token but no recipient: delivery errors, yet alert
	// mode must still exit 0.
	cfg := &config.Config{AccessToken: "token", AlertMessage: "disk full"}

	if code := run(cliFlags{alert: true}, cfg); code != 0 {
		t.Errorf("exit code = %d, want 0 in alert mode", code)
	}
}
