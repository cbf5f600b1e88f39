package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/ridgeline-labs/termflow/internal/runtime"
	"github.com/ridgeline-labs/termflow/internal/style"
)

// BunStore persists StyleTable diagnostics snapshots and AgentRuntime
// completion records through bun's PostgreSQL driver, the same
// sql.DB/bun.DB pairing the teacher wired for its workflow aggregate.
type BunStore struct {
	db *bun.DB
}

// NewBunStore opens a lazy PostgreSQL connection over dsn. Connection
// errors surface on first use, matching pgdriver's connector semantics.
func NewBunStore(dsn string) *BunStore {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &BunStore{db: db}
}

// StyleTableSnapshotModel is a point-in-time capture of a style.Table's
// StyleTableStats(), keyed by an arbitrary owner label (e.g. a pane or
// scrollback ID) so multiple tables can be tracked independently.
type StyleTableSnapshotModel struct {
	bun.BaseModel `bun:"table:style_table_snapshots,alias:sts"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Owner        string    `bun:"owner,notnull"`
	TotalStyles  int       `bun:"total_styles,notnull"`
	ActiveStyles int       `bun:"active_styles,notnull"`
	TotalRefs    uint64    `bun:"total_refs,notnull"`
	MemoryBytes  uint64    `bun:"memory_bytes,notnull"`
	CapturedAt   time.Time `bun:"captured_at,notnull,default:current_timestamp"`
}

// CompletionRecordModel mirrors runtime.CompletionRecord, the
// AgentRuntime's bounded in-memory ring, durably.
type CompletionRecordModel struct {
	bun.BaseModel `bun:"table:completion_records,alias:cr"`

	ID          int64     `bun:"id,pk,autoincrement"`
	ExecutionID string    `bun:"execution_id,notnull"`
	AgentID     string    `bun:"agent_id,notnull"`
	CommandID   string    `bun:"command_id,notnull"`
	ExitCode    int       `bun:"exit_code,notnull"`
	Success     bool      `bun:"success,notnull"`
	CompletedAt time.Time `bun:"completed_at,notnull"`
}

// InitSchema creates the backing tables if they do not already exist.
func (s *BunStore) InitSchema(ctx context.Context) error {
	models := []interface{}{
		(*StyleTableSnapshotModel)(nil),
		(*CompletionRecordModel)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SaveStyleTableSnapshot persists owner's current StyleTableStats.
func (s *BunStore) SaveStyleTableSnapshot(ctx context.Context, owner string, stats style.Stats) error {
	row := &StyleTableSnapshotModel{
		Owner:        owner,
		TotalStyles:  stats.TotalStyles,
		ActiveStyles: stats.ActiveStyles,
		TotalRefs:    stats.TotalRefs,
		MemoryBytes:  stats.MemoryBytes,
		CapturedAt:   time.Now(),
	}
	_, err := s.db.NewInsert().Model(row).Exec(ctx)
	return err
}

// LatestStyleTableSnapshot returns owner's most recently captured
// snapshot, or sql.ErrNoRows if none exists.
func (s *BunStore) LatestStyleTableSnapshot(ctx context.Context, owner string) (*StyleTableSnapshotModel, error) {
	row := new(StyleTableSnapshotModel)
	err := s.db.NewSelect().
		Model(row).
		Where("owner = ?", owner).
		OrderExpr("captured_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// SaveCompletionRecord persists one AgentRuntime completion.
func (s *BunStore) SaveCompletionRecord(ctx context.Context, rec runtime.CompletionRecord) error {
	row := &CompletionRecordModel{
		ExecutionID: rec.ExecutionID,
		AgentID:     rec.AgentID,
		CommandID:   rec.CommandID,
		ExitCode:    rec.ExitCode,
		Success:     rec.Success,
		CompletedAt: rec.CompletedAt,
	}
	_, err := s.db.NewInsert().Model(row).Exec(ctx)
	return err
}

// RecentCompletionRecords returns the most recent limit completion
// records across all agents, newest first.
func (s *BunStore) RecentCompletionRecords(ctx context.Context, limit int) ([]CompletionRecordModel, error) {
	var rows []CompletionRecordModel
	err := s.db.NewSelect().
		Model(&rows).
		OrderExpr("completed_at DESC").
		Limit(limit).
		Scan(ctx)
	return rows, err
}

// CompletionRecordsByAgent returns every persisted completion for a
// single agent, oldest first.
func (s *BunStore) CompletionRecordsByAgent(ctx context.Context, agentID string) ([]CompletionRecordModel, error) {
	var rows []CompletionRecordModel
	err := s.db.NewSelect().
		Model(&rows).
		Where("agent_id = ?", agentID).
		OrderExpr("completed_at ASC").
		Scan(ctx)
	return rows, err
}

// Ping verifies the underlying connection is reachable.
func (s *BunStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *BunStore) Close() error {
	return s.db.Close()
}
