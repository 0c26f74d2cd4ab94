package alertlog

import "github.com/luckyjian/sqlinsight/internal/level"

// Category classifies an error-log alert line.
type Category string

const (
	CategoryDeadlock      Category = "deadlock"
	CategoryCrashRecovery Category = "crash_recovery"
	CategoryPurgeOrVacuum Category = "purge_or_vacuum"
	CategoryReplication   Category = "replication"
)

// Categories lists all alert categories in report order.
var Categories = []Category{
	CategoryDeadlock,
	CategoryCrashRecovery,
	CategoryPurgeOrVacuum,
	CategoryReplication,
}

// PatternSet maps each category to its lowercase substring patterns for one
// engine. A line matches a category when it contains any of its patterns.
type PatternSet struct {
	engine   level.Engine
	patterns map[Category][]string
}

// Engine returns the engine this pattern set applies to.
func (p PatternSet) Engine() level.Engine { return p.engine }

var mysqlPatterns = PatternSet{
	engine: level.EngineMySQL,
	patterns: map[Category][]string{
		CategoryDeadlock: {"deadlock"},
		CategoryCrashRecovery: {
			"crash recovery",
			"starting crash recovery",
			"recovery completed",
		},
		CategoryPurgeOrVacuum: {"purge"},
		CategoryReplication: {
			"replication",
			"replica",
			"slave",
			"relay log",
			"group replication",
			"binlog",
		},
	},
}

var postgresPatterns = PatternSet{
	engine: level.EnginePostgres,
	patterns: map[Category][]string{
		CategoryDeadlock: {"deadlock detected", "deadlock"},
		CategoryCrashRecovery: {
			"database system was not properly shut down",
			"automatic recovery in progress",
			"redo starts at",
			"redo done at",
		},
		CategoryPurgeOrVacuum: {"autovacuum", "vacuum"},
		CategoryReplication: {
			"replication",
			"wal receiver",
			"wal sender",
			"standby",
			"recovery is in progress",
		},
	},
}

// PatternsFor returns the alert pattern set for the given engine.
func PatternsFor(engine level.Engine) PatternSet {
	if engine == level.EnginePostgres {
		return postgresPatterns
	}
	return mysqlPatterns
}
