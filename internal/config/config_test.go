package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luckyjian/sqlinsight/internal/level"
	"github.com/luckyjian/sqlinsight/internal/schedule"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Engine != "mysql" || cfg.Level != "level1" || cfg.Output != "json" {
		t.Errorf("unexpected defaults: engine=%q level=%q output=%q",
			cfg.Engine, cfg.Level, cfg.Output)
	}
	if cfg.PG.Port != 5432 || cfg.PG.User != "postgres" || cfg.PG.SSLMode != "prefer" {
		t.Errorf("unexpected pg defaults: %+v", cfg.PG)
	}
	if cfg.Limits.TableLimit != 200 || cfg.Limits.IndexLimit != 500 {
		t.Errorf("unexpected limit defaults: %+v", cfg.Limits)
	}
	if cfg.SlowLog.WindowSecs != 30 || !cfg.SlowLog.HotSwitch || !cfg.SlowLog.Restore {
		t.Errorf("unexpected slow log defaults: %+v", cfg.SlowLog)
	}
	if cfg.Schedule.Mode != "once" || cfg.Schedule.TimeoutSecs != 120 || cfg.Schedule.RetryTimes != 1 {
		t.Errorf("unexpected schedule defaults: %+v", cfg.Schedule)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SQLINSIGHT_ENGINE", "postgres")
	t.Setenv("SQLINSIGHT_LEVEL", "level0")
	t.Setenv("SQLINSIGHT_PG_HOST", "db.internal")
	t.Setenv("SQLINSIGHT_PG_URL", "postgres://insight@db.internal:5432/postgres")
	t.Setenv("SQLINSIGHT_SCHEDULE_MODE", "daemon")
	t.Setenv("SQLINSIGHT_SCHEDULE_INTERVAL_SECS", "15")
	t.Setenv("SQLINSIGHT_SLOW_LOG_HOT_SWITCH", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine != "postgres" || cfg.Level != "level0" {
		t.Errorf("env overrides not applied: engine=%q level=%q", cfg.Engine, cfg.Level)
	}
	if cfg.PG.Host != "db.internal" {
		t.Errorf("pg.host: got %q", cfg.PG.Host)
	}
	if cfg.PG.URL != "postgres://insight@db.internal:5432/postgres" {
		t.Errorf("pg.url: got %q", cfg.PG.URL)
	}
	if cfg.Schedule.Mode != "daemon" || cfg.Schedule.IntervalSecs != 15 {
		t.Errorf("schedule overrides not applied: %+v", cfg.Schedule)
	}
	if cfg.SlowLog.HotSwitch {
		t.Error("slow_log.hot_switch override not applied")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	content := `engine: mysql
level: level1
mysql:
  dsn: "insight:@tcp(127.0.0.1:3306)/"
slow_log:
  window_secs: 5
  path: /var/log/mysql/slow.log
schedule:
  mode: daemon
  max_cycles: 10
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MySQL.DSN != "insight:@tcp(127.0.0.1:3306)/" {
		t.Errorf("mysql.dsn: got %q", cfg.MySQL.DSN)
	}
	if cfg.SlowLog.WindowSecs != 5 || cfg.SlowLog.Path != "/var/log/mysql/slow.log" {
		t.Errorf("slow log section not read: %+v", cfg.SlowLog)
	}
	if cfg.Schedule.MaxCycles != 10 {
		t.Errorf("schedule.max_cycles: got %d", cfg.Schedule.MaxCycles)
	}
	// File values merge over defaults.
	if cfg.Limits.TableLimit != 200 {
		t.Errorf("defaults should survive partial file: %+v", cfg.Limits)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		return cfg
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"bad engine", func(c *Config) { c.Engine = "oracle" }, "engine"},
		{"bad level", func(c *Config) { c.Level = "level9" }, "level"},
		{"bad output", func(c *Config) { c.Output = "xml" }, "output"},
		{"bad port", func(c *Config) { c.PG.Port = 0 }, "pg.port"},
		{"bad limits", func(c *Config) { c.Limits.TableLimit = 0 }, "limits"},
		{"bad mode", func(c *Config) { c.Schedule.Mode = "forever" }, "schedule.mode"},
		{"bad timeout", func(c *Config) { c.Schedule.TimeoutSecs = 0 }, "timeout"},
		{"bad jitter", func(c *Config) { c.Schedule.JitterPct = 1.5 }, "jitter"},
		{"bad retry", func(c *Config) { c.Schedule.RetryTimes = -1 }, "retry"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestMaterializers(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.EngineKind() != level.EngineMySQL {
		t.Errorf("engine kind: got %s", cfg.EngineKind())
	}
	if cfg.RequestedLevel() != level.Level1 {
		t.Errorf("requested level: got %s", cfg.RequestedLevel())
	}

	sched := cfg.SchedulePolicy()
	if sched.Mode != schedule.RunOnce || sched.TimeoutSecs != 120 {
		t.Errorf("schedule policy: %+v", sched)
	}

	l1 := cfg.Level1Capture()
	if l1.WindowSecs != 30 || l1.LongQueryTimeSecs != 0.2 || !l1.EnableHotSwitch {
		t.Errorf("level1 capture config: %+v", l1)
	}
	if l1.MaxSlowLogBytes != 2_000_000 || l1.MaxErrorLogLines != 2_000 {
		t.Errorf("level1 caps: %+v", l1)
	}

	limits := cfg.MySQLLimits()
	if limits.TableLimit != 200 || limits.IndexLimit != 500 {
		t.Errorf("mysql limits: %+v", limits)
	}
}
