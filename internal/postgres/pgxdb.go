package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// PgxDB implements the DB interface using a real pgx.Conn.
type PgxDB struct {
	conn *pgx.Conn
}

// NewPgxDB wraps a pgx connection as a postgres.DB.
func NewPgxDB(conn *pgx.Conn) *PgxDB {
	return &PgxDB{conn: conn}
}

func (p *PgxDB) Ping(ctx context.Context) error {
	if err := p.conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func (p *PgxDB) StatusCounters(ctx context.Context) (map[string]string, error) {
	return p.fetchPairs(ctx,
		`SELECT metric, value FROM (
		     SELECT 'numbackends' AS metric, COALESCE(SUM(numbackends), 0)::text AS value FROM pg_stat_database
		     UNION ALL
		     SELECT 'xact_commit', COALESCE(SUM(xact_commit), 0)::text FROM pg_stat_database
		     UNION ALL
		     SELECT 'xact_rollback', COALESCE(SUM(xact_rollback), 0)::text FROM pg_stat_database
		     UNION ALL
		     SELECT 'blks_read', COALESCE(SUM(blks_read), 0)::text FROM pg_stat_database
		     UNION ALL
		     SELECT 'blks_hit', COALESCE(SUM(blks_hit), 0)::text FROM pg_stat_database
		     UNION ALL
		     SELECT 'tup_returned', COALESCE(SUM(tup_returned), 0)::text FROM pg_stat_database
		     UNION ALL
		     SELECT 'tup_fetched', COALESCE(SUM(tup_fetched), 0)::text FROM pg_stat_database
		     UNION ALL
		     SELECT 'tup_inserted', COALESCE(SUM(tup_inserted), 0)::text FROM pg_stat_database
		     UNION ALL
		     SELECT 'tup_updated', COALESCE(SUM(tup_updated), 0)::text FROM pg_stat_database
		     UNION ALL
		     SELECT 'tup_deleted', COALESCE(SUM(tup_deleted), 0)::text FROM pg_stat_database
		     UNION ALL
		     SELECT 'deadlocks', COALESCE(SUM(deadlocks), 0)::text FROM pg_stat_database
		 ) s`)
}

func (p *PgxDB) Settings(ctx context.Context) (map[string]string, error) {
	return p.fetchPairs(ctx, "SELECT name, setting FROM pg_settings")
}

func (p *PgxDB) TableSizes(ctx context.Context, limit int) ([]TableSize, error) {
	rows, err := p.conn.Query(ctx,
		`SELECT n.nspname AS table_schema,
		        c.relname AS table_name,
		        COALESCE(c.reltuples, 0)::bigint AS estimated_rows,
		        COALESCE(pg_relation_size(c.oid), 0)::bigint AS data_length,
		        COALESCE(pg_indexes_size(c.oid), 0)::bigint AS index_length,
		        COALESCE(pg_total_relation_size(c.oid), 0)::bigint AS total_length
		 FROM pg_class c
		 JOIN pg_namespace n ON n.oid = c.relnamespace
		 WHERE c.relkind = 'r'
		   AND n.nspname NOT IN ('pg_catalog', 'information_schema')
		 ORDER BY total_length DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TableSize
	for rows.Next() {
		var t TableSize
		if err := rows.Scan(&t.TableSchema, &t.TableName, &t.EstimatedRows,
			&t.DataLength, &t.IndexLength, &t.TotalLength); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (p *PgxDB) Indexes(ctx context.Context, limit int) ([]IndexDef, error) {
	rows, err := p.conn.Query(ctx,
		`SELECT schemaname, tablename, indexname, indexdef
		 FROM pg_indexes
		 WHERE schemaname NOT IN ('pg_catalog', 'information_schema')
		 ORDER BY schemaname, tablename, indexname
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []IndexDef
	for rows.Next() {
		var d IndexDef
		if err := rows.Scan(&d.TableSchema, &d.TableName, &d.IndexName, &d.IndexDef); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (p *PgxDB) ReplicationStatus(ctx context.Context) (map[string]string, error) {
	return p.fetchPairs(ctx,
		`SELECT metric, value FROM (
		     SELECT 'is_in_recovery' AS metric, pg_is_in_recovery()::text AS value
		     UNION ALL
		     SELECT 'replication_clients', COALESCE(COUNT(*), 0)::text FROM pg_stat_replication
		     UNION ALL
		     SELECT 'wal_receiver_status',
		            COALESCE((SELECT status FROM pg_stat_wal_receiver LIMIT 1), '')
		 ) s`)
}

func (p *PgxDB) ShowSetting(ctx context.Context, name string) (string, error) {
	var value string
	err := p.conn.QueryRow(ctx,
		"SELECT setting FROM pg_settings WHERE name = $1", name).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("read setting %s: %w", name, err)
	}
	return value, nil
}

func (p *PgxDB) AlterSystem(ctx context.Context, name, value string) error {
	// ALTER SYSTEM does not accept placeholders; the setting name comes
	// from a fixed constant and the value is single-quoted.
	stmt := fmt.Sprintf("ALTER SYSTEM SET %s = '%s'",
		name, strings.ReplaceAll(value, "'", "''"))
	if _, err := p.conn.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("alter system set %s: %w", name, err)
	}
	return nil
}

func (p *PgxDB) ReloadConf(ctx context.Context) error {
	if _, err := p.conn.Exec(ctx, "SELECT pg_reload_conf()"); err != nil {
		return fmt.Errorf("pg_reload_conf(): %w", err)
	}
	return nil
}

func (p *PgxDB) fetchPairs(ctx context.Context, query string) (map[string]string, error) {
	rows, err := p.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pairs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		pairs[key] = value
	}
	return pairs, rows.Err()
}
