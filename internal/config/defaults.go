package config

import "github.com/spf13/viper"

const (
	DefaultConfigPath = "~/.sqlinsight/config.yaml"

	DefaultEngine = "mysql"
	DefaultLevel  = "level1"
	DefaultOutput = "json"

	DefaultPGPort     = 5432
	DefaultSSLMode    = "prefer"
	DefaultPGUser     = "postgres"
	DefaultPGDatabase = "postgres"

	DefaultTableLimit = 200
	DefaultIndexLimit = 500

	DefaultSlowLogWindowSecs   = 30
	DefaultLongQueryTimeSecs   = 0.2
	DefaultSlowLogMaxBytes     = 2_000_000
	DefaultErrorLogMaxBytes    = 2_000_000
	DefaultErrorLogMaxLines    = 2_000
	DefaultScheduleIntervalSec = 60
	DefaultScheduleJitterPct   = 0.1
	DefaultScheduleTimeoutSec  = 120
	DefaultScheduleRetryTimes  = 1
	DefaultScheduleBackoffMs   = 1000
)

var validOutputs = map[string]bool{
	"json":   true,
	"pretty": true,
	"yaml":   true,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine", DefaultEngine)
	v.SetDefault("level", DefaultLevel)
	v.SetDefault("output", DefaultOutput)

	v.SetDefault("pg.port", DefaultPGPort)
	v.SetDefault("pg.sslmode", DefaultSSLMode)
	v.SetDefault("pg.user", DefaultPGUser)
	v.SetDefault("pg.database", DefaultPGDatabase)

	v.SetDefault("limits.table_limit", DefaultTableLimit)
	v.SetDefault("limits.index_limit", DefaultIndexLimit)

	v.SetDefault("slow_log.window_secs", DefaultSlowLogWindowSecs)
	v.SetDefault("slow_log.long_query_time_secs", DefaultLongQueryTimeSecs)
	v.SetDefault("slow_log.hot_switch", true)
	v.SetDefault("slow_log.restore", true)
	v.SetDefault("slow_log.max_bytes", DefaultSlowLogMaxBytes)
	v.SetDefault("error_log.max_bytes", DefaultErrorLogMaxBytes)
	v.SetDefault("error_log.max_lines", DefaultErrorLogMaxLines)

	v.SetDefault("schedule.mode", "once")
	v.SetDefault("schedule.interval_secs", DefaultScheduleIntervalSec)
	v.SetDefault("schedule.jitter_pct", DefaultScheduleJitterPct)
	v.SetDefault("schedule.timeout_secs", DefaultScheduleTimeoutSec)
	v.SetDefault("schedule.retry_times", DefaultScheduleRetryTimes)
	v.SetDefault("schedule.retry_backoff_ms", DefaultScheduleBackoffMs)
	v.SetDefault("schedule.max_cycles", 0)
}
