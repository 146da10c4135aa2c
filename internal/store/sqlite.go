package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/alamesa/catalog-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode. Concurrent phase workers flush progress through one connection, so
// the busy timeout matters.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS tasks (
	id               TEXT PRIMARY KEY,
	kind             TEXT NOT NULL,
	account          TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pendiente',
	progress_total   INTEGER NOT NULL DEFAULT 0,
	progress_current INTEGER NOT NULL DEFAULT 0,
	result_file      TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS task_logs (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id TEXT NOT NULL REFERENCES tasks(id),
	at      DATETIME NOT NULL DEFAULT (datetime('now')),
	message TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS visibility_checks (
	id         TEXT PRIMARY KEY,
	task_id    TEXT NOT NULL REFERENCES tasks(id),
	account    TEXT NOT NULL,
	sku_id     TEXT NOT NULL,
	ean        TEXT NOT NULL DEFAULT '',
	visible    INTEGER NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	price      REAL,
	stock      INTEGER,
	has_images INTEGER,
	checked_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_task_logs_task_id ON task_logs(task_id);
CREATE INDEX IF NOT EXISTS idx_visibility_checks_task_id ON visibility_checks(task_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateTask(ctx context.Context, kind model.TaskKind, account string) (*model.Task, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, kind, account, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(kind), account, string(model.TaskStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert task")
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

func (s *SQLiteStore) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, account, status, progress_total, progress_current, result_file, created_at, updated_at
		 FROM tasks WHERE id = ?`,
		taskID,
	)

	var t model.Task
	err := row.Scan(&t.ID, &t.Kind, &t.Account, &t.Status, &t.ProgressTotal, &t.ProgressCurrent, &t.ResultFile, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: task %s not found", taskID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get task %s", taskID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT at, message FROM task_logs WHERE task_id = ? ORDER BY id`,
		taskID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get task logs %s", taskID)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var line model.LogLine
		if err := rows.Scan(&line.At, &line.Message); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan log line")
		}
		t.Log = append(t.Log, line)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate log lines")
	}

	return &t, nil
}

func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query := `SELECT id, kind, account, status, progress_total, progress_current, result_file, created_at, updated_at FROM tasks`
	var args []any
	var conds []string

	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(filter.Kind))
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
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tasks")
	}
	defer rows.Close() //nolint:errcheck

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Kind, &t.Account, &t.Status, &t.ProgressTotal, &t.ProgressCurrent, &t.ResultFile, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan task")
		}
		tasks = append(tasks, t)
	}
	return tasks, eris.Wrap(rows.Err(), "sqlite: iterate tasks")
}

func (s *SQLiteStore) SetTaskStatus(ctx context.Context, taskID string, status model.TaskStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set task status %s", taskID)
	}
	return checkRowsAffected(res, "task", taskID)
}

func (s *SQLiteStore) SetProgressTotal(ctx context.Context, taskID string, total int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET progress_total = ?, progress_current = 0, updated_at = ? WHERE id = ?`,
		total, time.Now().UTC(), taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set progress total %s", taskID)
	}
	return checkRowsAffected(res, "task", taskID)
}

func (s *SQLiteStore) AddProgress(ctx context.Context, taskID string, delta int) error {
	// Single-statement increment: concurrent flushers can't lose updates.
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET progress_current = progress_current + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now().UTC(), taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: add progress %s", taskID)
	}
	return checkRowsAffected(res, "task", taskID)
}

func (s *SQLiteStore) AppendTaskLog(ctx context.Context, taskID string, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_logs (task_id, at, message) VALUES (?, ?, ?)`,
		taskID, time.Now().UTC(), message,
	)
	return eris.Wrapf(err, "sqlite: append task log %s", taskID)
}

func (s *SQLiteStore) SetResultFile(ctx context.Context, taskID string, path string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET result_file = ?, updated_at = ? WHERE id = ?`,
		path, time.Now().UTC(), taskID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set result file %s", taskID)
	}
	return checkRowsAffected(res, "task", taskID)
}

func (s *SQLiteStore) InsertVisibilityCheck(ctx context.Context, check *model.VisibilityCheck) error {
	if check.ID == "" {
		check.ID = uuid.New().String()
	}
	if check.CheckedAt.IsZero() {
		check.CheckedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visibility_checks (id, task_id, account, sku_id, ean, visible, reason, price, stock, has_images, checked_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		check.ID, check.TaskID, check.Account, check.SKUID, check.EAN,
		check.Visible, check.Reason, check.Price, check.Stock, check.HasImages, check.CheckedAt,
	)
	return eris.Wrap(err, "sqlite: insert visibility check")
}

func (s *SQLiteStore) ListVisibilityChecks(ctx context.Context, taskID string) ([]model.VisibilityCheck, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, account, sku_id, ean, visible, reason, price, stock, has_images, checked_at
		 FROM visibility_checks WHERE task_id = ? ORDER BY checked_at, id`,
		taskID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list visibility checks %s", taskID)
	}
	defer rows.Close() //nolint:errcheck

	var checks []model.VisibilityCheck
	for rows.Next() {
		var c model.VisibilityCheck
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Account, &c.SKUID, &c.EAN, &c.Visible, &c.Reason, &c.Price, &c.Stock, &c.HasImages, &c.CheckedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan visibility check")
		}
		checks = append(checks, c)
	}
	return checks, eris.Wrap(rows.Err(), "sqlite: iterate visibility checks")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s %s not found", entity, id)
	}
	return nil
}
