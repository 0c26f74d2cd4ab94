// Package mysqlx collects MySQL observability data for Level 0 and Level 1.
// Every query here is read-only; the only writes (slow log hot switch) go
// through the hotswitch session.
package mysqlx

import "context"

// TableSize is one row of the information_schema.TABLES size ranking.
type TableSize struct {
	TableSchema string `json:"table_schema"`
	TableName   string `json:"table_name"`
	Engine      string `json:"engine"`
	TableRows   uint64 `json:"table_rows"`
	DataLength  uint64 `json:"data_length"`
	IndexLength uint64 `json:"index_length"`
	TotalLength uint64 `json:"total_length"`
}

// IndexStat is one row of information_schema.STATISTICS.
type IndexStat struct {
	TableSchema string `json:"table_schema"`
	TableName   string `json:"table_name"`
	IndexName   string `json:"index_name"`
	NonUnique   uint64 `json:"non_unique"`
	SeqInIndex  uint64 `json:"seq_in_index"`
	ColumnName  string `json:"column_name"`
	Cardinality uint64 `json:"cardinality"`
}

// DB abstracts the MySQL queries needed by the collectors.
// This interface enables unit testing with mocks; it also satisfies
// hotswitch.MySQLDB so one connection serves both collection and the
// slow log hot switch.
type DB interface {
	Ping(ctx context.Context) error
	GlobalStatus(ctx context.Context) (map[string]string, error)
	GlobalVariables(ctx context.Context) (map[string]string, error)
	// Variable returns a single global variable value, or "" when the
	// server does not know the name.
	Variable(ctx context.Context, name string) (string, error)
	TableSizes(ctx context.Context, limit int) ([]TableSize, error)
	IndexStats(ctx context.Context, limit int) ([]IndexStat, error)
	// ReplicationStatus returns the first replication status row as a
	// column map plus the statement that produced it, or a nil map when
	// the server is not a replica.
	ReplicationStatus(ctx context.Context) (map[string]string, string, error)
	SetGlobal(ctx context.Context, name, value string) error
}
