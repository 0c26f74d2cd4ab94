package postgres

import (
	"context"
	"fmt"
)

// Limits caps the relation and index rankings.
type Limits struct {
	TableLimit int `json:"table_limit" yaml:"table_limit"`
	IndexLimit int `json:"index_limit" yaml:"index_limit"`
}

// DefaultLimits mirrors the documented defaults.
func DefaultLimits() Limits {
	return Limits{TableLimit: 200, IndexLimit: 500}
}

// Level0Capability records which Level 0 sources answered during this cycle.
type Level0Capability struct {
	Connected         bool `json:"postgres_connected"`
	StatusAccess      bool `json:"has_status_access"`
	SettingsAccess    bool `json:"has_settings_access"`
	StorageAccess     bool `json:"has_storage_access"`
	ReplicationAccess bool `json:"has_replication_status_access"`
}

// Level0Snapshot is the PostgreSQL section of a Level 0 payload.
type Level0Snapshot struct {
	GlobalStatus      map[string]string `json:"global_status"`
	GlobalVariables   map[string]string `json:"global_variables"`
	TableSizes        []TableSize       `json:"table_sizes"`
	Indexes           []IndexDef        `json:"indexes"`
	ReplicationStatus map[string]string `json:"replication_status"`
}

// Level0Report is the outcome of one Level 0 collection pass.
type Level0Report struct {
	Capability Level0Capability `json:"capability"`
	Snapshot   Level0Snapshot   `json:"postgres"`
	Warnings   []string         `json:"-"`
}

// CollectLevel0 gathers baseline metrics. Each source fails independently:
// a denied view becomes a cleared capability bit and a warning, never an
// error. Only an unreachable server aborts.
func CollectLevel0(ctx context.Context, db DB, limits Limits) (*Level0Report, error) {
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	report := &Level0Report{Capability: Level0Capability{Connected: true}}

	if status, err := db.StatusCounters(ctx); err != nil {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("failed querying pg_stat_database: %v", err))
	} else {
		report.Capability.StatusAccess = true
		report.Snapshot.GlobalStatus = status
	}

	if settings, err := db.Settings(ctx); err != nil {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("failed querying pg_settings: %v", err))
	} else {
		report.Capability.SettingsAccess = true
		report.Snapshot.GlobalVariables = settings
	}

	tablesOK := false
	if tables, err := db.TableSizes(ctx, limits.TableLimit); err != nil {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("failed querying relation sizes: %v", err))
	} else {
		tablesOK = true
		report.Snapshot.TableSizes = tables
	}
	indexesOK := false
	if indexes, err := db.Indexes(ctx, limits.IndexLimit); err != nil {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("failed querying pg_indexes: %v", err))
	} else {
		indexesOK = true
		report.Snapshot.Indexes = indexes
	}
	report.Capability.StorageAccess = tablesOK && indexesOK

	if replication, err := db.ReplicationStatus(ctx); err != nil {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("failed querying replication status: %v", err))
	} else {
		report.Capability.ReplicationAccess = true
		report.Snapshot.ReplicationStatus = replication
	}

	return report, nil
}
