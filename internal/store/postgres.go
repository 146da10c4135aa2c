package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/alamesa/catalog-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS tasks (
	id               TEXT PRIMARY KEY,
	kind             TEXT NOT NULL,
	account          TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pendiente',
	progress_total   INTEGER NOT NULL DEFAULT 0,
	progress_current INTEGER NOT NULL DEFAULT 0,
	result_file      TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS task_logs (
	id      BIGSERIAL PRIMARY KEY,
	task_id TEXT NOT NULL REFERENCES tasks(id),
	at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	message TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS visibility_checks (
	id         TEXT PRIMARY KEY,
	task_id    TEXT NOT NULL REFERENCES tasks(id),
	account    TEXT NOT NULL,
	sku_id     TEXT NOT NULL,
	ean        TEXT NOT NULL DEFAULT '',
	visible    BOOLEAN NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	price      DOUBLE PRECISION,
	stock      INTEGER,
	has_images BOOLEAN,
	checked_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_task_logs_task_id ON task_logs(task_id);
CREATE INDEX IF NOT EXISTS idx_visibility_checks_task_id ON visibility_checks(task_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateTask(ctx context.Context, kind model.TaskKind, account string) (*model.Task, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tasks (id, kind, account, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, string(kind), account, string(model.TaskStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert task")
	}

	return &model.Task{
		ID:        id,
		Kind:      kind,
		Account:   account,
		Status:    model.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, kind, account, status, progress_total, progress_current, result_file, created_at, updated_at
		 FROM tasks WHERE id = $1`,
		taskID,
	)

	var t model.Task
	err := row.Scan(&t.ID, &t.Kind, &t.Account, &t.Status, &t.ProgressTotal, &t.ProgressCurrent, &t.ResultFile, &t.CreatedAt, &t.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.Errorf("postgres: task %s not found", taskID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get task %s", taskID)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT at, message FROM task_logs WHERE task_id = $1 ORDER BY id`,
		taskID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get task logs %s", taskID)
	}
	defer rows.Close()

	for rows.Next() {
		var line model.LogLine
		if err := rows.Scan(&line.At, &line.Message); err != nil {
			return nil, eris.Wrap(err, "postgres: scan log line")
		}
		t.Log = append(t.Log, line)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate log lines")
	}

	return &t, nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query := `SELECT id, kind, account, status, progress_total, progress_current, result_file, created_at, updated_at FROM tasks`
	var args []any
	var conds []string

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		conds = append(conds, "kind = $"+strconv.Itoa(len(args)))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tasks")
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Kind, &t.Account, &t.Status, &t.ProgressTotal, &t.ProgressCurrent, &t.ResultFile, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan task")
		}
		tasks = append(tasks, t)
	}
	return tasks, eris.Wrap(rows.Err(), "postgres: iterate tasks")
}

func (s *PostgresStore) SetTaskStatus(ctx context.Context, taskID string, status model.TaskStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set task status %s", taskID)
	}
	return checkTagAffected(tag, "task", taskID)
}

func (s *PostgresStore) SetProgressTotal(ctx context.Context, taskID string, total int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET progress_total = $1, progress_current = 0, updated_at = $2 WHERE id = $3`,
		total, time.Now().UTC(), taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set progress total %s", taskID)
	}
	return checkTagAffected(tag, "task", taskID)
}

func (s *PostgresStore) AddProgress(ctx context.Context, taskID string, delta int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET progress_current = progress_current + $1, updated_at = $2 WHERE id = $3`,
		delta, time.Now().UTC(), taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: add progress %s", taskID)
	}
	return checkTagAffected(tag, "task", taskID)
}

func (s *PostgresStore) AppendTaskLog(ctx context.Context, taskID string, message string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO task_logs (task_id, at, message) VALUES ($1, $2, $3)`,
		taskID, time.Now().UTC(), message,
	)
	return eris.Wrapf(err, "postgres: append task log %s", taskID)
}

func (s *PostgresStore) SetResultFile(ctx context.Context, taskID string, path string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET result_file = $1, updated_at = $2 WHERE id = $3`,
		path, time.Now().UTC(), taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set result file %s", taskID)
	}
	return checkTagAffected(tag, "task", taskID)
}

func (s *PostgresStore) InsertVisibilityCheck(ctx context.Context, check *model.VisibilityCheck) error {
	if check.ID == "" {
		check.ID = uuid.New().String()
	}
	if check.CheckedAt.IsZero() {
		check.CheckedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO visibility_checks (id, task_id, account, sku_id, ean, visible, reason, price, stock, has_images, checked_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		check.ID, check.TaskID, check.Account, check.SKUID, check.EAN,
		check.Visible, check.Reason, check.Price, check.Stock, check.HasImages, check.CheckedAt,
	)
	return eris.Wrap(err, "postgres: insert visibility check")
}

func (s *PostgresStore) ListVisibilityChecks(ctx context.Context, taskID string) ([]model.VisibilityCheck, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, task_id, account, sku_id, ean, visible, reason, price, stock, has_images, checked_at
		 FROM visibility_checks WHERE task_id = $1 ORDER BY checked_at, id`,
		taskID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list visibility checks %s", taskID)
	}
	defer rows.Close()

	var checks []model.VisibilityCheck
	for rows.Next() {
		var c model.VisibilityCheck
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Account, &c.SKUID, &c.EAN, &c.Visible, &c.Reason, &c.Price, &c.Stock, &c.HasImages, &c.CheckedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan visibility check")
		}
		checks = append(checks, c)
	}
	return checks, eris.Wrap(rows.Err(), "postgres: iterate visibility checks")
}

func checkTagAffected(tag pgconn.CommandTag, entity, id string) error {
	if tag.RowsAffected() == 0 {
		return eris.Errorf("%s %s not found", entity, id)
	}
	return nil
}
