package level

// Stable downgrade reason wordings. Operators and downstream tooling match on
// these substrings, so they must not be reworded.
const (
	ReasonMySQLStatus       = "missing SHOW GLOBAL STATUS access"
	ReasonMySQLVariables    = "missing SHOW VARIABLES access"
	ReasonMySQLSchema       = "missing INFORMATION_SCHEMA access"
	ReasonMySQLReplication  = "missing replication status access"
	ReasonOSMetrics         = "missing OS-level metrics access (/proc, vmstat, iostat, sar)"
	ReasonHotSwitch         = "cannot hot-enable slow log"
	ReasonSlowLog           = "cannot collect slow log for digest aggregation"
	ReasonErrorLog          = "cannot collect error log"
	ReasonPerfSchemaOff     = "performance_schema is disabled"
	ReasonPerfSchemaAccess  = "missing performance_schema read access"
	ReasonLevel2Reserved    = "Level 2 collection is not implemented yet"
	ReasonLevel3Reserved    = "Level 3 collection is not implemented yet"
	ReasonPGStatus          = "missing pg_stat_database access"
	ReasonPGSettings        = "missing pg_settings access"
	ReasonPGStorage         = "missing relation/index metadata access"
	ReasonPGReplication     = "missing pg_stat_replication/pg_stat_wal_receiver access"
	ReasonPGLevel1Reserved  = "postgres Level 1 is not implemented yet"
)

// Evaluation is the outcome of running one level's checklist.
type Evaluation struct {
	OK      bool
	Reasons []string
}

// Checklist runs the engine-specific capability checks for a single level.
// Evaluate reports every missing capability at that level, in check order,
// without short-circuiting.
type Checklist interface {
	Engine() Engine
	Evaluate(l Level, snap Snapshot) Evaluation
}

// ChecklistFor returns the checklist variant for the given engine.
func ChecklistFor(engine Engine) Checklist {
	if engine == EnginePostgres {
		return postgresChecklist{}
	}
	return mysqlChecklist{}
}

type mysqlChecklist struct{}

func (mysqlChecklist) Engine() Engine { return EngineMySQL }

func (mysqlChecklist) Evaluate(l Level, snap Snapshot) Evaluation {
	var reasons []string
	ok := true

	switch l {
	case Level0:
		if !snap.StatusAccess {
			reasons = append(reasons, ReasonMySQLStatus)
		}
		if !snap.VariablesAccess {
			reasons = append(reasons, ReasonMySQLVariables)
		}
		if !snap.SchemaAccess {
			reasons = append(reasons, ReasonMySQLSchema)
		}
		if !snap.ReplicationAccess {
			reasons = append(reasons, ReasonMySQLReplication)
		}
		if !snap.OSMetricsAccess {
			reasons = append(reasons, ReasonOSMetrics)
		}
		ok = len(reasons) == 0
	case Level1:
		// Capture needs either the hot switch or an externally managed,
		// readable slow-log path; the error log is always required.
		if !snap.HotSwitchSlowLog {
			reasons = append(reasons, ReasonHotSwitch)
		}
		if !snap.ReadSlowLog {
			reasons = append(reasons, ReasonSlowLog)
		}
		if !snap.ReadErrorLog {
			reasons = append(reasons, ReasonErrorLog)
		}
		ok = (snap.HotSwitchSlowLog || snap.ReadSlowLog) && snap.ReadErrorLog
	case Level2:
		if !snap.PerformanceSchemaEnabled {
			reasons = append(reasons, ReasonPerfSchemaOff)
		}
		if !snap.PerformanceSchemaAccess {
			reasons = append(reasons, ReasonPerfSchemaAccess)
		}
		reasons = append(reasons, ReasonLevel2Reserved)
		ok = false
	case Level3:
		reasons = append(reasons, ReasonLevel3Reserved)
		ok = false
	}

	return Evaluation{OK: ok, Reasons: reasons}
}

type postgresChecklist struct{}

func (postgresChecklist) Engine() Engine { return EnginePostgres }

func (postgresChecklist) Evaluate(l Level, snap Snapshot) Evaluation {
	var reasons []string
	ok := true

	switch l {
	case Level0:
		if !snap.StatusAccess {
			reasons = append(reasons, ReasonPGStatus)
		}
		if !snap.VariablesAccess {
			reasons = append(reasons, ReasonPGSettings)
		}
		if !snap.SchemaAccess {
			reasons = append(reasons, ReasonPGStorage)
		}
		if !snap.ReplicationAccess {
			reasons = append(reasons, ReasonPGReplication)
		}
		if !snap.OSMetricsAccess {
			reasons = append(reasons, ReasonOSMetrics)
		}
		ok = len(reasons) == 0
	case Level1:
		// Declared but unimplemented: any Level 1 request on Postgres
		// downgrades with this fixed reason regardless of capabilities.
		reasons = append(reasons, ReasonPGLevel1Reserved)
		ok = false
	case Level2:
		reasons = append(reasons, ReasonLevel2Reserved)
		ok = false
	case Level3:
		reasons = append(reasons, ReasonLevel3Reserved)
		ok = false
	}

	return Evaluation{OK: ok, Reasons: reasons}
}
