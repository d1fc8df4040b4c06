package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"ICS_PATH", "LINE_CHANNEL_ACCESS_TOKEN", "LINE_TO", "USE_BROADCAST",
		"SHOW_MEMO", "SHOW_LINKS", "SHOW_END_TIME", "MEMO_MAX_LENGTH",
		"ALERT_MESSAGE", "DEBUG",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	if cfg.ICSPath != DefaultICSPath {
		t.Errorf("ICSPath = %q, want %q", cfg.ICSPath, DefaultICSPath)
	}
	if cfg.AccessToken != "" || cfg.To != "" {
		t.Errorf("expected empty credentials, got token=%q to=%q", cfg.AccessToken, cfg.To)
	}
	if cfg.UseBroadcast {
		t.Error("UseBroadcast should default to false")
	}
	if !cfg.ShowMemo {
		t.Error("ShowMemo should default to true")
	}
	if cfg.ShowLinks {
		t.Error("ShowLinks should default to false")
	}
	if !cfg.ShowEndTime {
		t.Error("ShowEndTime should default to true")
	}
	if cfg.MemoMaxLength != DefaultMemoMaxLength {
		t.Errorf("MemoMaxLength = %d, want %d", cfg.MemoMaxLength, DefaultMemoMaxLength)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ICS_PATH", "/tmp/cal.ics")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", " token123 ")
	t.Setenv("LINE_TO", "U0000")
	t.Setenv("USE_BROADCAST", "yes")
	t.Setenv("SHOW_MEMO", "off")
	t.Setenv("SHOW_LINKS", "1")
	t.Setenv("SHOW_END_TIME", "false")
	t.Setenv("MEMO_MAX_LENGTH", "120")

	cfg := FromEnv()

	if cfg.ICSPath != "/tmp/cal.ics" {
		t.Errorf("ICSPath = %q", cfg.ICSPath)
	}
	if cfg.AccessToken != "token123" {
		t.Errorf("AccessToken = %q, want trimmed token123", cfg.AccessToken)
	}
	if !cfg.UseBroadcast {
		t.Error("USE_BROADCAST=yes should enable broadcast")
	}
	if cfg.ShowMemo {
		t.Error("SHOW_MEMO=off should disable memos")
	}
	if !cfg.ShowLinks {
		t.Error("SHOW_LINKS=1 should enable links")
	}
	if cfg.ShowEndTime {
		t.Error("SHOW_END_TIME=false should disable end times")
	}
	if cfg.MemoMaxLength != 120 {
		t.Errorf("MemoMaxLength = %d, want 120", cfg.MemoMaxLength)
	}
}

func TestIntOrRejectsGarbage(t *testing.T) {
	for _, v := range []string{"abc", "-5", "0", "1.5"} {
		t.Setenv("MEMO_MAX_LENGTH", v)
		if got := FromEnv().MemoMaxLength; got != DefaultMemoMaxLength {
			t.Errorf("MEMO_MAX_LENGTH=%q: got %d, want default %d", v, got, DefaultMemoMaxLength)
		}
	}
}

func TestTruthy(t *testing.T) {
	cases := map[string]bool{
		"1": true, "true": true, "YES": true, " On ": true,
		"": false, "0": false, "no": false, "off": false, "nonsense": false,
	}
	for in, want := range cases {
		if got := truthy(in); got != want {
			t.Errorf("truthy(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTimezone(t *testing.T) {
	loc := Timezone()
	if loc == nil {
		t.Fatal("Timezone returned nil")
	}
	// Whatever the host has installed, the zone must sit at UTC+9.
	_, offset := time.Date(2025, 6, 1, 12, 0, 0, 0, loc).Zone()
	if offset != 9*60*60 {
		t.Errorf("offset = %d, want +9h", offset)
	}
}
