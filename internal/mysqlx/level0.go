package mysqlx

import (
	"context"
	"fmt"
)

// Limits caps the information_schema rankings.
type Limits struct {
	TableLimit int `json:"table_limit" yaml:"table_limit"`
	IndexLimit int `json:"index_limit" yaml:"index_limit"`
}

// DefaultLimits mirrors the documented defaults.
func DefaultLimits() Limits {
	return Limits{TableLimit: 200, IndexLimit: 500}
}

// Level0Capability records which Level 0 sources answered during this cycle.
// Negotiation consumes it as observed capability, not configuration.
type Level0Capability struct {
	Connected         bool `json:"mysql_connected"`
	StatusAccess      bool `json:"mysql_status_access"`
	VariablesAccess   bool `json:"mysql_variables_access"`
	SchemaAccess      bool `json:"information_schema_access"`
	ReplicationAccess bool `json:"replication_status_access"`
}

// Level0Snapshot is the MySQL section of a Level 0 payload.
type Level0Snapshot struct {
	GlobalStatus      map[string]string `json:"global_status"`
	GlobalVariables   map[string]string `json:"global_variables"`
	TableSizes        []TableSize       `json:"table_sizes"`
	Indexes           []IndexStat       `json:"indexes"`
	ReplicationStatus map[string]string `json:"replication_status"`
	ReplicationSource string            `json:"replication_status_source,omitempty"`
}

// Level0Report is the outcome of one Level 0 collection pass.
type Level0Report struct {
	Capability Level0Capability `json:"capability"`
	Snapshot   Level0Snapshot   `json:"mysql"`
	Warnings   []string         `json:"-"`
}

// CollectLevel0 gathers baseline metrics. Each source fails independently:
// a denied grant becomes a cleared capability bit and a warning, never an
// error. Only an unreachable server aborts.
func CollectLevel0(ctx context.Context, db DB, limits Limits) (*Level0Report, error) {
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	report := &Level0Report{Capability: Level0Capability{Connected: true}}

	if status, err := db.GlobalStatus(ctx); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("SHOW GLOBAL STATUS failed: %v", err))
	} else {
		report.Capability.StatusAccess = true
		report.Snapshot.GlobalStatus = status
	}

	if variables, err := db.GlobalVariables(ctx); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("SHOW VARIABLES failed: %v", err))
	} else {
		report.Capability.VariablesAccess = true
		report.Snapshot.GlobalVariables = variables
	}

	tablesOK := false
	if tables, err := db.TableSizes(ctx, limits.TableLimit); err != nil {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("information_schema TABLES query failed: %v", err))
	} else {
		tablesOK = true
		report.Snapshot.TableSizes = tables
	}
	indexesOK := false
	if indexes, err := db.IndexStats(ctx, limits.IndexLimit); err != nil {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("information_schema STATISTICS query failed: %v", err))
	} else {
		indexesOK = true
		report.Snapshot.Indexes = indexes
	}
	report.Capability.SchemaAccess = tablesOK && indexesOK

	if replication, source, err := db.ReplicationStatus(ctx); err != nil {
		report.Warnings = append(report.Warnings, err.Error())
	} else {
		// A nil row map is still success: the server simply is not a
		// replica.
		report.Capability.ReplicationAccess = true
		report.Snapshot.ReplicationStatus = replication
		report.Snapshot.ReplicationSource = source
	}

	return report, nil
}
