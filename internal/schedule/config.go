package schedule

// RunMode selects between a single collection cycle and a long-running loop.
type RunMode string

const (
	RunOnce   RunMode = "once"
	RunDaemon RunMode = "daemon"
)

// Config is the schedule policy for the process lifetime. It is validated by
// the config loader and immutable afterwards; a snapshot of it is embedded in
// every emitted record.
type Config struct {
	Mode           RunMode `json:"mode"             yaml:"mode"`
	IntervalSecs   int     `json:"interval_secs"    yaml:"interval_secs"`
	JitterPct      float64 `json:"jitter_pct"       yaml:"jitter_pct"`
	TimeoutSecs    int     `json:"timeout_secs"     yaml:"timeout_secs"`
	RetryTimes     int     `json:"retry_times"      yaml:"retry_times"`
	RetryBackoffMs int     `json:"retry_backoff_ms" yaml:"retry_backoff_ms"`
	// MaxCycles bounds daemon mode; zero means unbounded.
	MaxCycles int `json:"max_cycles" yaml:"max_cycles"`
}

// DefaultConfig mirrors the documented defaults for the collector schedule.
func DefaultConfig() Config {
	return Config{
		Mode:           RunOnce,
		IntervalSecs:   60,
		JitterPct:      0.1,
		TimeoutSecs:    120,
		RetryTimes:     1,
		RetryBackoffMs: 1000,
	}
}
