package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type mockDB struct {
	pingErr error

	status    map[string]string
	statusErr error

	settings    map[string]string
	settingsErr error

	tables    []TableSize
	tablesErr error

	indexes    []IndexDef
	indexesErr error

	replication    map[string]string
	replicationErr error

	showValues  map[string]string
	alterCalls  []string
	alterErr    error
	reloadCalls int
}

func (m *mockDB) Ping(ctx context.Context) error { return m.pingErr }

func (m *mockDB) StatusCounters(ctx context.Context) (map[string]string, error) {
	return m.status, m.statusErr
}

func (m *mockDB) Settings(ctx context.Context) (map[string]string, error) {
	return m.settings, m.settingsErr
}

func (m *mockDB) TableSizes(ctx context.Context, limit int) ([]TableSize, error) {
	return m.tables, m.tablesErr
}

func (m *mockDB) Indexes(ctx context.Context, limit int) ([]IndexDef, error) {
	return m.indexes, m.indexesErr
}

func (m *mockDB) ReplicationStatus(ctx context.Context) (map[string]string, error) {
	return m.replication, m.replicationErr
}

func (m *mockDB) ShowSetting(ctx context.Context, name string) (string, error) {
	return m.showValues[name], nil
}

func (m *mockDB) AlterSystem(ctx context.Context, name, value string) error {
	m.alterCalls = append(m.alterCalls, name+"="+value)
	return m.alterErr
}

func (m *mockDB) ReloadConf(ctx context.Context) error {
	m.reloadCalls++
	return nil
}

func healthyMockDB() *mockDB {
	return &mockDB{
		status:   map[string]string{"xact_commit": "12345", "deadlocks": "0"},
		settings: map[string]string{"shared_buffers": "16384"},
		tables: []TableSize{
			{TableSchema: "public", TableName: "orders", EstimatedRows: 1000, TotalLength: 4096},
		},
		indexes: []IndexDef{
			{TableSchema: "public", TableName: "orders", IndexName: "orders_pkey",
				IndexDef: "CREATE UNIQUE INDEX orders_pkey ON public.orders USING btree (id)"},
		},
		replication: map[string]string{
			"is_in_recovery":      "false",
			"replication_clients": "1",
			"wal_receiver_status": "",
		},
	}
}

func TestCollectLevel0_AllSourcesAvailable(t *testing.T) {
	db := healthyMockDB()

	report, err := CollectLevel0(context.Background(), db, DefaultLimits())
	if err != nil {
		t.Fatalf("CollectLevel0: %v", err)
	}

	cap := report.Capability
	if !cap.Connected || !cap.StatusAccess || !cap.SettingsAccess ||
		!cap.StorageAccess || !cap.ReplicationAccess {
		t.Errorf("expected all capability bits set, got %+v", cap)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", report.Warnings)
	}
	if report.Snapshot.GlobalStatus["xact_commit"] != "12345" {
		t.Errorf("status counters not carried: %v", report.Snapshot.GlobalStatus)
	}
	if report.Snapshot.ReplicationStatus["is_in_recovery"] != "false" {
		t.Errorf("replication status not carried: %v", report.Snapshot.ReplicationStatus)
	}
}

func TestCollectLevel0_UnreachableServer(t *testing.T) {
	db := healthyMockDB()
	db.pingErr = errors.New("connection refused")

	if _, err := CollectLevel0(context.Background(), db, DefaultLimits()); err == nil {
		t.Fatal("expected error when server is unreachable")
	}
}

func TestCollectLevel0_DeniedStatusIsWarningNotError(t *testing.T) {
	db := healthyMockDB()
	db.statusErr = errors.New("permission denied for view pg_stat_database")

	report, err := CollectLevel0(context.Background(), db, DefaultLimits())
	if err != nil {
		t.Fatalf("section failure must not abort collection: %v", err)
	}
	if report.Capability.StatusAccess {
		t.Error("status access bit should be cleared")
	}
	if !report.Capability.SettingsAccess {
		t.Error("other sources keep collecting")
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "pg_stat_database") {
		t.Errorf("expected one status warning, got %v", report.Warnings)
	}
}

func TestCollectLevel0_StorageAccessNeedsBothQueries(t *testing.T) {
	db := healthyMockDB()
	db.indexesErr = errors.New("permission denied for view pg_indexes")

	report, err := CollectLevel0(context.Background(), db, DefaultLimits())
	if err != nil {
		t.Fatalf("CollectLevel0: %v", err)
	}
	if report.Capability.StorageAccess {
		t.Error("storage access requires both relation sizes and pg_indexes")
	}
	if len(report.Snapshot.TableSizes) != 1 {
		t.Error("successful relation ranking is still kept")
	}
}

func TestCollectLevel0_ReplicationDenied(t *testing.T) {
	db := healthyMockDB()
	db.replication = nil
	db.replicationErr = errors.New("permission denied for view pg_stat_replication")

	report, err := CollectLevel0(context.Background(), db, DefaultLimits())
	if err != nil {
		t.Fatalf("CollectLevel0: %v", err)
	}
	if report.Capability.ReplicationAccess {
		t.Error("replication access bit should be cleared")
	}
	if len(report.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", report.Warnings)
	}
}
