package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/luckyjian/sqlinsight/internal/level"
	"github.com/luckyjian/sqlinsight/internal/mysqlx"
	"github.com/luckyjian/sqlinsight/internal/postgres"
	"github.com/luckyjian/sqlinsight/internal/schedule"
)

// Config holds all tool-wide configuration. Database passwords are
// intentionally absent from the MySQL DSN recommendation and the PG section;
// the PostgreSQL password is read exclusively from the SQLINSIGHT_PG_PASSWORD
// environment variable at connection time.
type Config struct {
	Engine   string         `yaml:"engine"    mapstructure:"engine"`
	Level    string         `yaml:"level"     mapstructure:"level"`
	Output   string         `yaml:"output"    mapstructure:"output"`
	MySQL    MySQLConfig    `yaml:"mysql"     mapstructure:"mysql"`
	PG       PGConfig       `yaml:"pg"        mapstructure:"pg"`
	Limits   LimitsConfig   `yaml:"limits"    mapstructure:"limits"`
	SlowLog  SlowLogConfig  `yaml:"slow_log"  mapstructure:"slow_log"`
	ErrorLog ErrorLogConfig `yaml:"error_log" mapstructure:"error_log"`
	Schedule ScheduleConfig `yaml:"schedule"  mapstructure:"schedule"`
}

// MySQLConfig holds the MySQL connection string in go-sql-driver DSN form
// (user:pass@tcp(host:port)/db). Prefer SQLINSIGHT_MYSQL_DSN over putting
// credentials in a config file.
type MySQLConfig struct {
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// PGConfig holds PostgreSQL connection parameters. No Password field: the
// password is read only from os.Getenv("SQLINSIGHT_PG_PASSWORD"). URL, when
// set, wins over the discrete fields; prefer SQLINSIGHT_PG_URL when the URL
// carries credentials.
type PGConfig struct {
	URL      string `yaml:"url"      mapstructure:"url"`
	Host     string `yaml:"host"     mapstructure:"host"`
	Port     int    `yaml:"port"     mapstructure:"port"`
	User     string `yaml:"user"     mapstructure:"user"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"sslmode"  mapstructure:"sslmode"`
}

// LimitsConfig caps the schema inventory rankings.
type LimitsConfig struct {
	TableLimit int `yaml:"table_limit" mapstructure:"table_limit"`
	IndexLimit int `yaml:"index_limit" mapstructure:"index_limit"`
}

// SlowLogConfig tunes the Level 1 slow log capture window.
type SlowLogConfig struct {
	WindowSecs        int     `yaml:"window_secs"          mapstructure:"window_secs"`
	LongQueryTimeSecs float64 `yaml:"long_query_time_secs" mapstructure:"long_query_time_secs"`
	HotSwitch         bool    `yaml:"hot_switch"           mapstructure:"hot_switch"`
	Restore           bool    `yaml:"restore"              mapstructure:"restore"`
	Path              string  `yaml:"path"                 mapstructure:"path"`
	MaxBytes          int     `yaml:"max_bytes"            mapstructure:"max_bytes"`
}

// ErrorLogConfig bounds the Level 1 error log sample.
type ErrorLogConfig struct {
	Path     string `yaml:"path"      mapstructure:"path"`
	MaxBytes int    `yaml:"max_bytes" mapstructure:"max_bytes"`
	MaxLines int    `yaml:"max_lines" mapstructure:"max_lines"`
}

// ScheduleConfig is the cycle schedule policy.
type ScheduleConfig struct {
	Mode           string  `yaml:"mode"             mapstructure:"mode"`
	IntervalSecs   int     `yaml:"interval_secs"    mapstructure:"interval_secs"`
	JitterPct      float64 `yaml:"jitter_pct"       mapstructure:"jitter_pct"`
	TimeoutSecs    int     `yaml:"timeout_secs"     mapstructure:"timeout_secs"`
	RetryTimes     int     `yaml:"retry_times"      mapstructure:"retry_times"`
	RetryBackoffMs int     `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	MaxCycles      int     `yaml:"max_cycles"       mapstructure:"max_cycles"`
}

// Load reads configuration from an optional file and environment variables.
// When cfgFile is empty, only defaults and environment variables are used.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Support environment variables with SQLINSIGHT_ prefix (e.g.
	// SQLINSIGHT_MYSQL_DSN → mysql.dsn). AutomaticEnv maps keys with "_"
	// separator; we also bind each key explicitly so nested keys override
	// correctly.
	v.SetEnvPrefix("SQLINSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	envBindings := map[string]string{
		"engine":                        "SQLINSIGHT_ENGINE",
		"level":                         "SQLINSIGHT_LEVEL",
		"output":                        "SQLINSIGHT_OUTPUT",
		"mysql.dsn":                     "SQLINSIGHT_MYSQL_DSN",
		"pg.url":                        "SQLINSIGHT_PG_URL",
		"pg.host":                       "SQLINSIGHT_PG_HOST",
		"pg.port":                       "SQLINSIGHT_PG_PORT",
		"pg.user":                       "SQLINSIGHT_PG_USER",
		"pg.database":                   "SQLINSIGHT_PG_DATABASE",
		"pg.sslmode":                    "SQLINSIGHT_PG_SSLMODE",
		"limits.table_limit":            "SQLINSIGHT_LIMITS_TABLE_LIMIT",
		"limits.index_limit":            "SQLINSIGHT_LIMITS_INDEX_LIMIT",
		"slow_log.window_secs":          "SQLINSIGHT_SLOW_LOG_WINDOW_SECS",
		"slow_log.long_query_time_secs": "SQLINSIGHT_SLOW_LOG_LONG_QUERY_TIME_SECS",
		"slow_log.hot_switch":           "SQLINSIGHT_SLOW_LOG_HOT_SWITCH",
		"slow_log.restore":              "SQLINSIGHT_SLOW_LOG_RESTORE",
		"slow_log.path":                 "SQLINSIGHT_SLOW_LOG_PATH",
		"slow_log.max_bytes":            "SQLINSIGHT_SLOW_LOG_MAX_BYTES",
		"error_log.path":                "SQLINSIGHT_ERROR_LOG_PATH",
		"error_log.max_bytes":           "SQLINSIGHT_ERROR_LOG_MAX_BYTES",
		"error_log.max_lines":           "SQLINSIGHT_ERROR_LOG_MAX_LINES",
		"schedule.mode":                 "SQLINSIGHT_SCHEDULE_MODE",
		"schedule.interval_secs":        "SQLINSIGHT_SCHEDULE_INTERVAL_SECS",
		"schedule.jitter_pct":           "SQLINSIGHT_SCHEDULE_JITTER_PCT",
		"schedule.timeout_secs":         "SQLINSIGHT_SCHEDULE_TIMEOUT_SECS",
		"schedule.retry_times":          "SQLINSIGHT_SCHEDULE_RETRY_TIMES",
		"schedule.retry_backoff_ms":     "SQLINSIGHT_SCHEDULE_RETRY_BACKOFF_MS",
		"schedule.max_cycles":           "SQLINSIGHT_SCHEDULE_MAX_CYCLES",
	}
	for key, envVar := range envBindings {
		if err := v.BindEnv(key, envVar); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", envVar, err)
		}
	}

	// Optional config file.
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration is semantically correct.
func (c *Config) Validate() error {
	if _, err := level.ParseEngine(c.Engine); err != nil {
		return err
	}
	if _, err := level.Parse(c.Level); err != nil {
		return err
	}
	if !validOutputs[c.Output] {
		return fmt.Errorf("invalid output %q: must be one of json, pretty, yaml", c.Output)
	}
	if c.PG.Port <= 0 || c.PG.Port > 65535 {
		return fmt.Errorf("invalid pg.port %d: must be between 1 and 65535", c.PG.Port)
	}
	if c.Limits.TableLimit <= 0 || c.Limits.IndexLimit <= 0 {
		return fmt.Errorf("limits must be positive, got table=%d index=%d",
			c.Limits.TableLimit, c.Limits.IndexLimit)
	}
	if c.SlowLog.WindowSecs < 0 {
		return fmt.Errorf("invalid slow_log.window_secs %d", c.SlowLog.WindowSecs)
	}
	if c.SlowLog.LongQueryTimeSecs < 0 {
		return fmt.Errorf("invalid slow_log.long_query_time_secs %f", c.SlowLog.LongQueryTimeSecs)
	}
	if mode := c.Schedule.Mode; mode != string(schedule.RunOnce) && mode != string(schedule.RunDaemon) {
		return fmt.Errorf("invalid schedule.mode %q: must be once or daemon", mode)
	}
	if c.Schedule.TimeoutSecs <= 0 {
		return fmt.Errorf("invalid schedule.timeout_secs %d: must be positive", c.Schedule.TimeoutSecs)
	}
	if c.Schedule.RetryTimes < 0 {
		return fmt.Errorf("invalid schedule.retry_times %d", c.Schedule.RetryTimes)
	}
	if c.Schedule.JitterPct < 0 || c.Schedule.JitterPct > 0.9 {
		return fmt.Errorf("invalid schedule.jitter_pct %f: must be within [0, 0.9]", c.Schedule.JitterPct)
	}
	if c.Schedule.MaxCycles < 0 {
		return fmt.Errorf("invalid schedule.max_cycles %d", c.Schedule.MaxCycles)
	}
	return nil
}

// EngineKind returns the parsed engine selector. Call Validate first.
func (c *Config) EngineKind() level.Engine {
	engine, _ := level.ParseEngine(c.Engine)
	return engine
}

// RequestedLevel returns the parsed collection level. Call Validate first.
func (c *Config) RequestedLevel() level.Level {
	l, _ := level.Parse(c.Level)
	return l
}

// SchedulePolicy materializes the schedule policy for the scheduler.
func (c *Config) SchedulePolicy() schedule.Config {
	return schedule.Config{
		Mode:           schedule.RunMode(c.Schedule.Mode),
		IntervalSecs:   c.Schedule.IntervalSecs,
		JitterPct:      c.Schedule.JitterPct,
		TimeoutSecs:    c.Schedule.TimeoutSecs,
		RetryTimes:     c.Schedule.RetryTimes,
		RetryBackoffMs: c.Schedule.RetryBackoffMs,
		MaxCycles:      c.Schedule.MaxCycles,
	}
}

// MySQLLimits materializes the MySQL inventory caps.
func (c *Config) MySQLLimits() mysqlx.Limits {
	return mysqlx.Limits{TableLimit: c.Limits.TableLimit, IndexLimit: c.Limits.IndexLimit}
}

// PGLimits materializes the PostgreSQL inventory caps.
func (c *Config) PGLimits() postgres.Limits {
	return postgres.Limits{TableLimit: c.Limits.TableLimit, IndexLimit: c.Limits.IndexLimit}
}

// Level1Capture materializes the Level 1 capture configuration.
func (c *Config) Level1Capture() mysqlx.Level1Config {
	return mysqlx.Level1Config{
		WindowSecs:        c.SlowLog.WindowSecs,
		LongQueryTimeSecs: c.SlowLog.LongQueryTimeSecs,
		EnableHotSwitch:   c.SlowLog.HotSwitch,
		RestoreSettings:   c.SlowLog.Restore,
		SlowLogPath:       c.SlowLog.Path,
		ErrorLogPath:      c.ErrorLog.Path,
		MaxSlowLogBytes:   c.SlowLog.MaxBytes,
		MaxErrorLogBytes:  c.ErrorLog.MaxBytes,
		MaxErrorLogLines:  c.ErrorLog.MaxLines,
	}
}

// PGConnConfig materializes the PostgreSQL connection parameters.
func (c *Config) PGConnConfig() postgres.Config {
	return postgres.Config{
		Host:     c.PG.Host,
		Port:     c.PG.Port,
		User:     c.PG.User,
		Database: c.PG.Database,
		SSLMode:  c.PG.SSLMode,
	}
}
