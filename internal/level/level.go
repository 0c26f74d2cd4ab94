package level

import "fmt"

// Level is a named collection depth. Negotiation only ever moves downward
// from the requested level, so the ordering of the constants matters.
type Level int

const (
	// Unavailable means not even read-only metadata collection is possible.
	Unavailable Level = iota
	// Level0 is read-only metadata collection (status, variables, schema, OS).
	Level0
	// Level1 adds windowed slow-log capture and error-log alert extraction.
	Level1
	// Level2 is reserved for performance_schema / pg_stat_statements sampling.
	Level2
	// Level3 is reserved for short-window packet/syscall tracing.
	Level3
)

func (l Level) String() string {
	switch l {
	case Unavailable:
		return "Unavailable"
	case Level0:
		return "Level 0"
	case Level1:
		return "Level 1"
	case Level2:
		return "Level 2"
	case Level3:
		return "Level 3"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Parse maps a config-level string ("level0", "level1", ...) to a Level.
func Parse(s string) (Level, error) {
	switch s {
	case "level0":
		return Level0, nil
	case "level1":
		return Level1, nil
	case "level2":
		return Level2, nil
	case "level3":
		return Level3, nil
	}
	return Unavailable, fmt.Errorf("invalid collection level %q: must be one of level0, level1, level2, level3", s)
}

// Engine identifies the database engine being collected.
type Engine string

const (
	EngineMySQL    Engine = "mysql"
	EnginePostgres Engine = "postgres"
)

// ParseEngine validates an engine selector string.
func ParseEngine(s string) (Engine, error) {
	switch Engine(s) {
	case EngineMySQL, EnginePostgres:
		return Engine(s), nil
	}
	return "", fmt.Errorf("invalid engine %q: must be mysql or postgres", s)
}
