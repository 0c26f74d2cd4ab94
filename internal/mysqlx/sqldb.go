package mysqlx

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

const systemSchemaFilter = "('information_schema', 'mysql', 'performance_schema', 'sys')"

// SQLDB implements DB on a database/sql pool with the go-sql-driver.
type SQLDB struct {
	pool *sql.DB
}

// Open validates the DSN and opens a small pool sized for a sequential
// collector. The server is not contacted until the first query.
func Open(dsn string) (*SQLDB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql DSN: %w", err)
	}
	pool, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql pool: %w", err)
	}
	pool.SetMaxOpenConns(2)
	pool.SetMaxIdleConns(1)
	pool.SetConnMaxLifetime(5 * time.Minute)
	return &SQLDB{pool: pool}, nil
}

// Close releases the pool.
func (d *SQLDB) Close() error { return d.pool.Close() }

func (d *SQLDB) Ping(ctx context.Context) error {
	return d.pool.PingContext(ctx)
}

func (d *SQLDB) GlobalStatus(ctx context.Context) (map[string]string, error) {
	return d.fetchPairs(ctx, "SHOW GLOBAL STATUS")
}

func (d *SQLDB) GlobalVariables(ctx context.Context) (map[string]string, error) {
	return d.fetchPairs(ctx, "SHOW VARIABLES")
}

func (d *SQLDB) Variable(ctx context.Context, name string) (string, error) {
	rows, err := d.pool.QueryContext(ctx, "SHOW VARIABLES LIKE ?", name)
	if err != nil {
		return "", fmt.Errorf("show variables like %s: %w", name, err)
	}
	defer rows.Close()

	if rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return "", fmt.Errorf("scan variable %s: %w", name, err)
		}
		return value, nil
	}
	return "", rows.Err()
}

func (d *SQLDB) TableSizes(ctx context.Context, limit int) ([]TableSize, error) {
	query := `SELECT TABLE_SCHEMA, TABLE_NAME, COALESCE(ENGINE, '') AS ENGINE,
		COALESCE(TABLE_ROWS, 0) AS TABLE_ROWS,
		COALESCE(DATA_LENGTH, 0) AS DATA_LENGTH,
		COALESCE(INDEX_LENGTH, 0) AS INDEX_LENGTH
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA NOT IN ` + systemSchemaFilter + `
		ORDER BY (COALESCE(DATA_LENGTH, 0) + COALESCE(INDEX_LENGTH, 0)) DESC
		LIMIT ?`
	rows, err := d.pool.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query information_schema.TABLES: %w", err)
	}
	defer rows.Close()

	var out []TableSize
	for rows.Next() {
		var t TableSize
		if err := rows.Scan(&t.TableSchema, &t.TableName, &t.Engine,
			&t.TableRows, &t.DataLength, &t.IndexLength); err != nil {
			return nil, fmt.Errorf("scan table size row: %w", err)
		}
		t.TotalLength = t.DataLength + t.IndexLength
		out = append(out, t)
	}
	return out, rows.Err()
}

func (d *SQLDB) IndexStats(ctx context.Context, limit int) ([]IndexStat, error) {
	query := `SELECT TABLE_SCHEMA, TABLE_NAME, INDEX_NAME, NON_UNIQUE, SEQ_IN_INDEX,
		COLUMN_NAME, COALESCE(CARDINALITY, 0) AS CARDINALITY
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA NOT IN ` + systemSchemaFilter + `
		ORDER BY TABLE_SCHEMA, TABLE_NAME, INDEX_NAME, SEQ_IN_INDEX
		LIMIT ?`
	rows, err := d.pool.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query information_schema.STATISTICS: %w", err)
	}
	defer rows.Close()

	var out []IndexStat
	for rows.Next() {
		var s IndexStat
		if err := rows.Scan(&s.TableSchema, &s.TableName, &s.IndexName,
			&s.NonUnique, &s.SeqInIndex, &s.ColumnName, &s.Cardinality); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReplicationStatus tries SHOW REPLICA STATUS first (MySQL 8.0.22+) and falls
// back to SHOW SLAVE STATUS for older servers.
func (d *SQLDB) ReplicationStatus(ctx context.Context) (map[string]string, string, error) {
	row, replicaErr := d.fetchFirstRowMap(ctx, "SHOW REPLICA STATUS")
	if replicaErr == nil {
		return row, "SHOW REPLICA STATUS", nil
	}
	row, slaveErr := d.fetchFirstRowMap(ctx, "SHOW SLAVE STATUS")
	if slaveErr == nil {
		return row, "SHOW SLAVE STATUS", nil
	}
	return nil, "", fmt.Errorf("replication status query failed (REPLICA and SLAVE): %v; %v",
		replicaErr, slaveErr)
}

func (d *SQLDB) SetGlobal(ctx context.Context, name, value string) error {
	// SET GLOBAL does not accept placeholders; numeric values are embedded
	// raw, everything else single-quoted.
	literal := value
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		literal = "'" + strings.ReplaceAll(value, "'", "''") + "'"
	}
	stmt := fmt.Sprintf("SET GLOBAL %s = %s", name, literal)
	if _, err := d.pool.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("set global %s: %w", name, err)
	}
	return nil
}

func (d *SQLDB) fetchPairs(ctx context.Context, query string) (map[string]string, error) {
	rows, err := d.pool.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", query, err)
	}
	defer rows.Close()

	pairs := make(map[string]string)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan %q row: %w", query, err)
		}
		pairs[key] = value.String
	}
	return pairs, rows.Err()
}

// fetchFirstRowMap reads the first row of a statement with a server-dependent
// column set, as a column name to string map. No rows yields a nil map.
func (d *SQLDB) fetchFirstRowMap(ctx context.Context, query string) (map[string]string, error) {
	rows, err := d.pool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]sql.RawBytes, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	row := make(map[string]string, len(columns))
	for i, col := range columns {
		if values[i] == nil {
			row[col] = "NULL"
			continue
		}
		row[col] = string(values[i])
	}
	return row, nil
}
