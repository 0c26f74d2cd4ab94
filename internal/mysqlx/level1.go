package mysqlx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/luckyjian/sqlinsight/internal/alertlog"
	"github.com/luckyjian/sqlinsight/internal/digest"
	"github.com/luckyjian/sqlinsight/internal/hotswitch"
	"github.com/luckyjian/sqlinsight/internal/level"
	"github.com/luckyjian/sqlinsight/internal/logtail"
)

// Level1Config tunes the slow log capture window and the log read caps.
type Level1Config struct {
	WindowSecs        int     `json:"slow_log_window_secs"          yaml:"slow_log_window_secs"`
	LongQueryTimeSecs float64 `json:"slow_log_long_query_time_secs" yaml:"slow_log_long_query_time_secs"`
	EnableHotSwitch   bool    `json:"enable_slow_log_hot_switch"    yaml:"enable_slow_log_hot_switch"`
	RestoreSettings   bool    `json:"restore_slow_log_settings"     yaml:"restore_slow_log_settings"`
	SlowLogPath       string  `json:"slow_log_path"                 yaml:"slow_log_path"`
	ErrorLogPath      string  `json:"error_log_path"                yaml:"error_log_path"`
	MaxSlowLogBytes   int     `json:"max_slow_log_bytes"            yaml:"max_slow_log_bytes"`
	MaxErrorLogBytes  int     `json:"max_error_log_bytes"           yaml:"max_error_log_bytes"`
	MaxErrorLogLines  int     `json:"max_error_log_lines"           yaml:"max_error_log_lines"`
}

// restoreTimeout bounds the detached restore statements issued when the
// capture window closes.
const restoreTimeout = 10 * time.Second

// DefaultLevel1Config mirrors the documented defaults.
func DefaultLevel1Config() Level1Config {
	return Level1Config{
		WindowSecs:        30,
		LongQueryTimeSecs: 0.2,
		EnableHotSwitch:   true,
		RestoreSettings:   true,
		MaxSlowLogBytes:   2_000_000,
		MaxErrorLogBytes:  2_000_000,
		MaxErrorLogLines:  2_000,
	}
}

// Level1Capability records which Level 1 sources answered during this cycle.
type Level1Capability struct {
	Connected        bool `json:"mysql_connected"`
	HotSwitchOK      bool `json:"can_enable_slow_log_hot_switch"`
	ReadSlowLogOK    bool `json:"can_read_slow_log"`
	ReadErrorLogOK   bool `json:"can_read_error_log"`
	RestoreAttempted bool `json:"restore_attempted"`
	RestoreSucceeded bool `json:"restore_succeeded"`
}

// SlowLogReport is the slow log section of a Level 1 payload.
type SlowLogReport struct {
	EnabledForWindow      bool            `json:"enabled_for_window"`
	WindowSecs            int             `json:"window_secs"`
	LongQueryTimeSecs     float64         `json:"long_query_time_secs"`
	SlowLogPath           string          `json:"slow_log_path,omitempty"`
	PreviousSlowQueryLog  string          `json:"previous_slow_query_log,omitempty"`
	PreviousLongQueryTime string          `json:"previous_long_query_time,omitempty"`
	CollectedBytes        int             `json:"collected_bytes"`
	ParsedEntries         int             `json:"parsed_entries"`
	DigestCount           int             `json:"digest_count"`
	Digests               []digest.Digest `json:"digests"`
}

// ErrorLogReport is the error log section of a Level 1 payload.
type ErrorLogReport struct {
	ErrorLogPath string           `json:"error_log_path,omitempty"`
	SampledLines int              `json:"sampled_lines"`
	AlertCount   int              `json:"alert_count"`
	Alerts       []alertlog.Alert `json:"alerts"`
}

// Level1Report is the outcome of one Level 1 collection pass.
type Level1Report struct {
	Capability Level1Capability `json:"capability"`
	SlowLog    SlowLogReport    `json:"slow_log"`
	ErrorLog   ErrorLogReport   `json:"error_log"`
	Warnings   []string         `json:"-"`
}

// Level1Collector runs the slow log capture window and the error log scan.
type Level1Collector struct {
	db  DB
	cfg Level1Config

	// wait is the window sleep, replaceable in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewLevel1Collector builds a collector over an established connection.
func NewLevel1Collector(db DB, cfg Level1Config) *Level1Collector {
	return &Level1Collector{db: db, cfg: cfg, wait: waitCtx}
}

// Collect runs one Level 1 pass. The hot-switch session, when enabled, is
// restored on every exit path including context cancellation mid-window;
// restore failures surface as warnings, not errors.
func (c *Level1Collector) Collect(ctx context.Context) (*Level1Report, error) {
	if err := c.db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	report := &Level1Report{
		Capability: Level1Capability{Connected: true},
		SlowLog: SlowLogReport{
			WindowSecs:        c.cfg.WindowSecs,
			LongQueryTimeSecs: c.cfg.LongQueryTimeSecs,
		},
	}

	c.collectSlowLog(ctx, report)
	c.collectErrorLog(ctx, report)
	return report, nil
}

func (c *Level1Collector) collectSlowLog(ctx context.Context, report *Level1Report) {
	report.SlowLog.PreviousSlowQueryLog, _ = c.db.Variable(ctx, hotswitch.SettingSlowQueryLog)
	report.SlowLog.PreviousLongQueryTime, _ = c.db.Variable(ctx, hotswitch.SettingLongQueryTime)

	path := c.slowLogPath(ctx)
	if path == "" {
		report.Warnings = append(report.Warnings,
			"slow log path unavailable (provide slow_log_path or MySQL slow_query_log_file)")
		return
	}
	report.SlowLog.SlowLogPath = path

	// Offset before the window opens; only content appended during the
	// window is parsed.
	initialOffset, err := logtail.Len(path)
	if err != nil {
		initialOffset = 0
	}

	var session *hotswitch.Session
	if c.cfg.EnableHotSwitch {
		strategy := hotswitch.NewMySQLStrategy(c.db, c.cfg.LongQueryTimeSecs)
		session, err = hotswitch.Open(ctx, strategy)
		if err != nil {
			report.Warnings = append(report.Warnings, err.Error())
		} else {
			report.Capability.HotSwitchOK = true
			report.SlowLog.EnabledForWindow = true
			defer func() {
				// The attempt context may already be dead when the window
				// ends (per-attempt timeout, stop signal). Restore runs on a
				// detached context so an interrupted cycle cannot strand the
				// server with the capture settings applied.
				restoreCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
				defer cancel()
				closeErr := session.Close(restoreCtx, c.cfg.RestoreSettings)
				report.Capability.RestoreAttempted = session.RestoreAttempted()
				report.Capability.RestoreSucceeded = session.RestoreSucceeded()
				if closeErr != nil {
					report.Warnings = append(report.Warnings, closeErr.Error())
				}
			}()
		}
	}

	if c.cfg.WindowSecs > 0 {
		if err := c.wait(ctx, time.Duration(c.cfg.WindowSecs)*time.Second); err != nil {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("capture window interrupted: %v", err))
			return
		}
	}

	segment, err := logtail.ReadAppended(path, initialOffset, c.cfg.MaxSlowLogBytes)
	if err != nil {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("failed reading slow log file %s: %v", path, err))
		return
	}
	report.Capability.ReadSlowLogOK = true
	if segment.Truncated {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("slow log segment truncated to %d bytes", segment.Bytes))
	}
	report.SlowLog.CollectedBytes = segment.Bytes

	entries := digest.ParseSlowLog(segment.Content)
	report.SlowLog.ParsedEntries = len(entries)
	report.SlowLog.Digests = digest.Aggregate(entries)
	report.SlowLog.DigestCount = len(report.SlowLog.Digests)
}

func (c *Level1Collector) collectErrorLog(ctx context.Context, report *Level1Report) {
	path := c.errorLogPath(ctx)
	if path == "" {
		report.Warnings = append(report.Warnings,
			"error log path unavailable (provide error_log_path or MySQL log_error)")
		return
	}
	report.ErrorLog.ErrorLogPath = path

	segment, err := logtail.ReadTail(path, c.cfg.MaxErrorLogBytes)
	if err != nil {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("failed reading error log file %s: %v", path, err))
		return
	}
	report.Capability.ReadErrorLogOK = true

	lines, dropped := logtail.LastLines(segment.Content, c.cfg.MaxErrorLogLines)
	if dropped {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("error log sample capped at %d lines", c.cfg.MaxErrorLogLines))
	}
	report.ErrorLog.SampledLines = len(lines)
	report.ErrorLog.Alerts = alertlog.Extract(lines, alertlog.PatternsFor(level.EngineMySQL))
	report.ErrorLog.AlertCount = len(report.ErrorLog.Alerts)
}

func (c *Level1Collector) slowLogPath(ctx context.Context) string {
	if path := strings.TrimSpace(c.cfg.SlowLogPath); path != "" {
		return path
	}
	discovered, err := c.db.Variable(ctx, "slow_query_log_file")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(discovered)
}

func (c *Level1Collector) errorLogPath(ctx context.Context) string {
	if path := strings.TrimSpace(c.cfg.ErrorLogPath); path != "" {
		return path
	}
	discovered, err := c.db.Variable(ctx, "log_error")
	if err != nil {
		return ""
	}
	discovered = strings.TrimSpace(discovered)
	// "stderr" means the server logs to its supervisor; there is no file
	// to sample.
	if discovered == "stderr" {
		return ""
	}
	return discovered
}

func waitCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
