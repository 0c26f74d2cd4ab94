package postgres

import "context"

// TableSize is one row of the relation size ranking (pg_class joined with
// pg_namespace, user schemas only).
type TableSize struct {
	TableSchema   string `json:"table_schema"`
	TableName     string `json:"table_name"`
	EstimatedRows int64  `json:"estimated_rows"`
	DataLength    int64  `json:"data_length"`
	IndexLength   int64  `json:"index_length"`
	TotalLength   int64  `json:"total_length"`
}

// IndexDef is one row of pg_indexes.
type IndexDef struct {
	TableSchema string `json:"table_schema"`
	TableName   string `json:"table_name"`
	IndexName   string `json:"index_name"`
	IndexDef    string `json:"index_def"`
}

// DB abstracts the PostgreSQL queries needed by the Level 0 collector.
// This interface enables unit testing with mocks; it also satisfies
// hotswitch.PostgresDB so one connection serves both collection and the
// statement logging hot switch.
type DB interface {
	Ping(ctx context.Context) error
	// StatusCounters returns cluster-wide counters aggregated over
	// pg_stat_database.
	StatusCounters(ctx context.Context) (map[string]string, error)
	Settings(ctx context.Context) (map[string]string, error)
	TableSizes(ctx context.Context, limit int) ([]TableSize, error)
	Indexes(ctx context.Context, limit int) ([]IndexDef, error)
	// ReplicationStatus returns recovery state, connected replication
	// clients, and wal receiver status as a metric map.
	ReplicationStatus(ctx context.Context) (map[string]string, error)

	ShowSetting(ctx context.Context, name string) (string, error)
	AlterSystem(ctx context.Context, name, value string) error
	ReloadConf(ctx context.Context) error
}
