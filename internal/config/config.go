package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Defaults for the tunable knobs. Each one can be overridden through the
// environment variable of the same name documented on Config.
const (
	DefaultICSPath       = "data/timetree.ics"
	DefaultMemoMaxLength = 60
)

// Config holds the per-run settings, resolved once at startup from the
// process environment. It is never mutated after FromEnv returns.
type Config struct {
	// ICSPath is where the upstream export step left the calendar file.
	// Env: ICS_PATH.
	ICSPath string

	// AccessToken is the LINE channel access token. When empty the run
	// degrades to a dry-run that prints instead of sending.
	// Env: LINE_CHANNEL_ACCESS_TOKEN.
	AccessToken string

	// To is the push recipient (user/group/room ID). Required for a live
	// push; unused when broadcasting. Env: LINE_TO.
	To string

	// UseBroadcast selects the broadcast endpoint over targeted push.
	// Env: USE_BROADCAST.
	UseBroadcast bool

	// ShowMemo includes the event memo line in the digest. Env: SHOW_MEMO.
	ShowMemo bool
	// ShowLinks includes one line per event URL. Env: SHOW_LINKS.
	ShowLinks bool
	// ShowEndTime renders a clipped HH:MM-HH:MM range; when off only the
	// clipped start time is shown. Env: SHOW_END_TIME.
	ShowEndTime bool
	// MemoMaxLength caps the memo line, in runes. Env: MEMO_MAX_LENGTH.
	MemoMaxLength int

	// AlertMessage is the literal text sent in alert mode. Env: ALERT_MESSAGE.
	AlertMessage string

	// Debug enables debug-level logging. Env: DEBUG.
	Debug bool
}

// FromEnv builds the run configuration from the environment, applying
// documented defaults for everything that is unset.
func FromEnv() *Config {
	return &Config{
		ICSPath:       stringOr("ICS_PATH", DefaultICSPath),
		AccessToken:   strings.TrimSpace(os.Getenv("LINE_CHANNEL_ACCESS_TOKEN")),
		To:            strings.TrimSpace(os.Getenv("LINE_TO")),
		UseBroadcast:  truthy(os.Getenv("USE_BROADCAST")),
		ShowMemo:      boolOr("SHOW_MEMO", true),
		ShowLinks:     boolOr("SHOW_LINKS", false),
		ShowEndTime:   boolOr("SHOW_END_TIME", true),
		MemoMaxLength: intOr("MEMO_MAX_LENGTH", DefaultMemoMaxLength),
		AlertMessage:  strings.TrimSpace(os.Getenv("ALERT_MESSAGE")),
		Debug:         truthy(os.Getenv("DEBUG")),
	}
}

// truthy normalizes boolean-like strings: "1", "true", "yes" and "on"
// (case-insensitive, surrounding space ignored) mean true.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func stringOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func boolOr(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	return truthy(v)
}

func intOr(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		// Garbage or nonsense values fall back to the default instead of
		// failing a scheduled run.
		return def
	}
	return n
}

var (
	tzOnce sync.Once
	tz     *time.Location
)

// Timezone returns the canonical civil timezone (Asia/Tokyo). All date
// comparisons happen in this zone regardless of host-local time.
func Timezone() *time.Location {
	tzOnce.Do(func() {
		loc, err := time.LoadLocation("Asia/Tokyo")
		if err != nil {
			loc = time.FixedZone("JST", 9*60*60)
		}
		tz = loc
	})
	return tz
}
