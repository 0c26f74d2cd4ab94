// Package collect wires probing, level negotiation, and the per-engine
// collectors into the cycle function the scheduler drives.
package collect

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/luckyjian/sqlinsight/internal/level"
	"github.com/luckyjian/sqlinsight/internal/logtail"
	"github.com/luckyjian/sqlinsight/internal/mysqlx"
	"github.com/luckyjian/sqlinsight/internal/osmetrics"
	"github.com/luckyjian/sqlinsight/internal/postgres"
	"github.com/luckyjian/sqlinsight/internal/schedule"
)

// Source names used in the envelope's source_status map.
const (
	SourceMySQLStatus      = "mysql.global_status"
	SourceMySQLVariables   = "mysql.global_variables"
	SourceMySQLSchema      = "mysql.information_schema"
	SourceMySQLReplication = "mysql.replication_status"
	SourceMySQLHotSwitch   = "mysql.slow_log_hot_switch"
	SourceMySQLSlowLog     = "mysql.slow_log"
	SourceMySQLErrorLog    = "mysql.error_log"
	SourcePGStatus         = "postgres.status_counters"
	SourcePGSettings       = "postgres.settings"
	SourcePGStorage        = "postgres.storage"
	SourcePGReplication    = "postgres.replication_status"
	SourceOSMetrics        = "os.basic_metrics"
)

// Config is the materialized, already-validated input for one pipeline. The
// pipeline never parses strings or reads environment variables itself.
type Config struct {
	Engine         level.Engine
	RequestedLevel level.Level
	MySQLLimits    mysqlx.Limits
	PGLimits       postgres.Limits
	Level1         mysqlx.Level1Config
}

// MySQLFactory opens a MySQL connection for one cycle. The returned closer
// runs when the cycle ends.
type MySQLFactory func(ctx context.Context) (mysqlx.DB, func() error, error)

// PostgresFactory opens a PostgreSQL connection for one cycle.
type PostgresFactory func(ctx context.Context) (postgres.DB, func() error, error)

// Pipeline performs one full collection pass per invocation: baseline
// collection, read-only capability probing, negotiation, and, when Level 1 is
// confirmed reachable, the windowed slow log capture.
type Pipeline struct {
	cfg          Config
	log          zerolog.Logger
	openMySQL    MySQLFactory
	openPostgres PostgresFactory

	// collectOS is replaceable in tests.
	collectOS func() osmetrics.Result
}

// New builds a pipeline. Factories for engines not selected may be nil.
func New(cfg Config, log zerolog.Logger, openMySQL MySQLFactory, openPostgres PostgresFactory) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		log:          log,
		openMySQL:    openMySQL,
		openPostgres: openPostgres,
		collectOS:    osmetrics.Collect,
	}
}

// MySQLPayload is the envelope payload for engine mysql.
type MySQLPayload struct {
	Probes level.Snapshot      `json:"capability_snapshot"`
	Level0 *MySQLLevel0Payload `json:"level0,omitempty"`
	Level1 *MySQLLevel1Payload `json:"level1,omitempty"`
}

// MySQLLevel0Payload carries the baseline sections.
type MySQLLevel0Payload struct {
	Capability mysqlx.Level0Capability `json:"capability"`
	MySQL      mysqlx.Level0Snapshot   `json:"mysql"`
	OS         osmetrics.Snapshot      `json:"os"`
}

// MySQLLevel1Payload carries the capture window sections.
type MySQLLevel1Payload struct {
	Capability mysqlx.Level1Capability `json:"capability"`
	SlowLog    mysqlx.SlowLogReport    `json:"slow_log"`
	ErrorLog   mysqlx.ErrorLogReport   `json:"error_log"`
}

// PostgresPayload is the envelope payload for engine postgres.
type PostgresPayload struct {
	Probes level.Snapshot         `json:"capability_snapshot"`
	Level0 *PostgresLevel0Payload `json:"postgres_level0,omitempty"`
}

// PostgresLevel0Payload carries the baseline sections.
type PostgresLevel0Payload struct {
	Capability postgres.Level0Capability `json:"capability"`
	Postgres   postgres.Level0Snapshot   `json:"postgres"`
	OS         osmetrics.Snapshot        `json:"os"`
}

// Run executes one collection cycle. It satisfies schedule.CycleFunc.
func (p *Pipeline) Run(ctx context.Context) (*schedule.CycleResult, error) {
	if p.cfg.Engine == level.EnginePostgres {
		return p.runPostgres(ctx)
	}
	return p.runMySQL(ctx)
}

func (p *Pipeline) runMySQL(ctx context.Context) (*schedule.CycleResult, error) {
	db, closeDB, err := p.openMySQL(ctx)
	if err != nil {
		return nil, err
	}
	defer closeDB()

	// Baseline collection doubles as the Level 0 capability probe: every
	// query is read-only and its outcome is the probe result.
	level0, err := mysqlx.CollectLevel0(ctx, db, p.cfg.MySQLLimits)
	if err != nil {
		return nil, err
	}
	osResult := p.collectOS()

	warnings := append([]string{}, level0.Warnings...)
	warnings = append(warnings, osResult.Warnings...)

	probes := level.Snapshot{
		StatusAccess:      level0.Capability.StatusAccess,
		VariablesAccess:   level0.Capability.VariablesAccess,
		SchemaAccess:      level0.Capability.SchemaAccess,
		ReplicationAccess: level0.Capability.ReplicationAccess,
		OSMetricsAccess:   osResult.Snapshot.HasAnyMetric(),
	}
	if p.cfg.RequestedLevel >= level.Level1 {
		p.probeMySQLLevel1(ctx, db, &probes)
	}

	negotiated := level.Negotiate(level.ChecklistFor(level.EngineMySQL), p.cfg.RequestedLevel, probes)
	p.logNegotiation(negotiated)

	status := map[string]bool{
		SourceMySQLStatus:      level0.Capability.StatusAccess,
		SourceMySQLVariables:   level0.Capability.VariablesAccess,
		SourceMySQLSchema:      level0.Capability.SchemaAccess,
		SourceMySQLReplication: level0.Capability.ReplicationAccess,
		SourceOSMetrics:        probes.OSMetricsAccess,
	}
	payload := &MySQLPayload{
		Probes: probes,
		Level0: &MySQLLevel0Payload{
			Capability: level0.Capability,
			MySQL:      level0.Snapshot,
			OS:         osResult.Snapshot,
		},
	}

	if negotiated.Selected >= level.Level1 {
		collector := mysqlx.NewLevel1Collector(db, p.cfg.Level1)
		level1, err := collector.Collect(ctx)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, level1.Warnings...)
		status[SourceMySQLHotSwitch] = level1.Capability.HotSwitchOK
		status[SourceMySQLSlowLog] = level1.Capability.ReadSlowLogOK
		status[SourceMySQLErrorLog] = level1.Capability.ReadErrorLogOK
		payload.Level1 = &MySQLLevel1Payload{
			Capability: level1.Capability,
			SlowLog:    level1.SlowLog,
			ErrorLog:   level1.ErrorLog,
		}
	}

	return &schedule.CycleResult{
		SelectedLevel:    negotiated.Selected,
		DowngradeReasons: negotiated.DowngradeReasons,
		SourceStatus:     status,
		Warnings:         warnings,
		Payload:          payload,
	}, nil
}

// probeMySQLLevel1 fills the Level 1 capability bits with read-only checks.
// It must never mutate server state; the hot switch itself runs only after
// negotiation confirms Level 1.
func (p *Pipeline) probeMySQLLevel1(ctx context.Context, db mysqlx.DB, probes *level.Snapshot) {
	if p.cfg.Level1.EnableHotSwitch {
		// Reading the toggle proves the variable surface the switch needs;
		// the SET GLOBAL grant itself is only provable by mutating, which
		// probing must not do.
		if _, err := db.Variable(ctx, "slow_query_log"); err == nil {
			probes.HotSwitchSlowLog = true
		}
	}
	if path := p.discoverPath(ctx, db, p.cfg.Level1.SlowLogPath, "slow_query_log_file"); path != "" {
		probes.ReadSlowLog = logtail.Readable(path)
	}
	if path := p.discoverPath(ctx, db, p.cfg.Level1.ErrorLogPath, "log_error"); path != "" && path != "stderr" {
		probes.ReadErrorLog = logtail.Readable(path)
	}
}

func (p *Pipeline) discoverPath(ctx context.Context, db mysqlx.DB, override, variable string) string {
	if path := strings.TrimSpace(override); path != "" {
		return path
	}
	discovered, err := db.Variable(ctx, variable)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(discovered)
}

func (p *Pipeline) runPostgres(ctx context.Context) (*schedule.CycleResult, error) {
	db, closeDB, err := p.openPostgres(ctx)
	if err != nil {
		return nil, err
	}
	defer closeDB()

	level0, err := postgres.CollectLevel0(ctx, db, p.cfg.PGLimits)
	if err != nil {
		return nil, err
	}
	osResult := p.collectOS()

	warnings := append([]string{}, level0.Warnings...)
	warnings = append(warnings, osResult.Warnings...)

	probes := level.Snapshot{
		StatusAccess:      level0.Capability.StatusAccess,
		VariablesAccess:   level0.Capability.SettingsAccess,
		SchemaAccess:      level0.Capability.StorageAccess,
		ReplicationAccess: level0.Capability.ReplicationAccess,
		OSMetricsAccess:   osResult.Snapshot.HasAnyMetric(),
	}

	negotiated := level.Negotiate(level.ChecklistFor(level.EnginePostgres), p.cfg.RequestedLevel, probes)
	p.logNegotiation(negotiated)

	return &schedule.CycleResult{
		SelectedLevel:    negotiated.Selected,
		DowngradeReasons: negotiated.DowngradeReasons,
		SourceStatus: map[string]bool{
			SourcePGStatus:      level0.Capability.StatusAccess,
			SourcePGSettings:    level0.Capability.SettingsAccess,
			SourcePGStorage:     level0.Capability.StorageAccess,
			SourcePGReplication: level0.Capability.ReplicationAccess,
			SourceOSMetrics:     probes.OSMetricsAccess,
		},
		Warnings: warnings,
		Payload: &PostgresPayload{
			Probes: probes,
			Level0: &PostgresLevel0Payload{
				Capability: level0.Capability,
				Postgres:   level0.Snapshot,
				OS:         osResult.Snapshot,
			},
		},
	}, nil
}

func (p *Pipeline) logNegotiation(result level.Result) {
	event := p.log.Info().
		Str("requested", result.Requested.String()).
		Str("selected", result.Selected.String())
	if result.Downgraded() {
		event.Strs("downgrade_reasons", result.DowngradeReasons)
	}
	event.Msg("level negotiated")
}
