package level

// Snapshot holds the capability probe results for one collection cycle.
// It is captured once, before negotiation, by read-only probes; the
// negotiator itself performs no I/O and never mutates server state.
type Snapshot struct {
	// Level 0 capabilities. The status/variables/schema names map to
	// SHOW GLOBAL STATUS / SHOW VARIABLES / INFORMATION_SCHEMA on MySQL and
	// to pg_stat_database / pg_settings / relation metadata on Postgres.
	StatusAccess      bool `json:"status_access"`
	VariablesAccess   bool `json:"variables_access"`
	SchemaAccess      bool `json:"information_schema_access"`
	ReplicationAccess bool `json:"replication_status_access"`
	OSMetricsAccess   bool `json:"os_metrics_access"`

	// Level 1 capabilities.
	HotSwitchSlowLog bool `json:"hot_switch_slow_log"`
	ReadSlowLog      bool `json:"read_slow_log"`
	ReadErrorLog     bool `json:"read_error_log"`

	// Level 2 capabilities (probed but currently never acted on).
	PerformanceSchemaEnabled bool `json:"performance_schema_enabled"`
	PerformanceSchemaAccess  bool `json:"performance_schema_access"`
}
