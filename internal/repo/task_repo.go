package repo

import (
	"context"
	"errors"
	"strconv"
	"strings"

	dom "github.com/serega19851/task-manager/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = "id, title, description, status, created_at, updated_at"

// TaskRepo is the persistence gateway for tasks. Absence is an explicit
// result (found/deleted booleans), never an error: callers decide what a
// missing row means. Errors are reserved for store failures.
type TaskRepo interface {
	Create(ctx context.Context, title string, description *string, status dom.Status) (dom.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (dom.Task, bool, error)
	List(ctx context.Context, status *dom.Status, limit, offset int) ([]dom.Task, error)
	Count(ctx context.Context, status *dom.Status) (int64, error)
	Update(ctx context.Context, id uuid.UUID, patch dom.TaskPatch) (dom.Task, bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// PGTaskRepo implements TaskRepo with Postgres. Every mutation runs in its
// own transaction so a failed write rolls back before the error surfaces.
type PGTaskRepo struct {
	db *pgxpool.Pool
}

func NewPGTaskRepo(db *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{db: db}
}

func scanTask(row pgx.Row) (dom.Task, error) {
	var t dom.Task
	var status string
	err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return dom.Task{}, err
	}
	t.Status = dom.Status(status)
	return t, nil
}

// Create assigns a fresh ID, lets the store stamp created_at/updated_at,
// and returns the persisted row.
func (r *PGTaskRepo) Create(ctx context.Context, title string, description *string, status dom.Status) (dom.Task, error) {
	query := `
		INSERT INTO tasks (id, title, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + taskColumns
	var out dom.Task
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		t, err := scanTask(tx.QueryRow(ctx, query, uuid.New(), title, description, string(status)))
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return dom.Task{}, err
	}
	return out, nil
}

func (r *PGTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (dom.Task, bool, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Task{}, false, nil
	}
	if err != nil {
		return dom.Task{}, false, err
	}
	return t, true, nil
}

// List applies the optional status filter, then limit/offset windowing.
// Ordered by created_at DESC with id as tiebreaker so offset pagination
// stays stable.
func (r *PGTaskRepo) List(ctx context.Context, status *dom.Status, limit, offset int) ([]dom.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, id` +
		` LIMIT $` + strconv.Itoa(len(args)+1) +
		` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Count returns the number of rows matching the same filter as List,
// independent of windowing.
func (r *PGTaskRepo) Count(ctx context.Context, status *dom.Status) (int64, error) {
	query := `SELECT count(*) FROM tasks`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	var total int64
	err := r.db.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

// buildTaskUpdate returns the SET clause and its args for a partial update.
// $1 is reserved for the task id. updated_at always refreshes.
func buildTaskUpdate(patch dom.TaskPatch) (string, []any) {
	set := []string{"updated_at = now()"}
	var args []any
	next := func() string { return "$" + strconv.Itoa(len(args)+2) }
	if patch.Title != nil {
		set = append(set, "title = "+next())
		args = append(args, *patch.Title)
	}
	if patch.SetDescription {
		set = append(set, "description = "+next())
		args = append(args, patch.Description)
	}
	if patch.Status != nil {
		set = append(set, "status = "+next())
		args = append(args, string(*patch.Status))
	}
	return strings.Join(set, ", "), args
}

// Update applies only the fields named in patch and returns the refreshed
// row. found is false when no row matches the id.
func (r *PGTaskRepo) Update(ctx context.Context, id uuid.UUID, patch dom.TaskPatch) (dom.Task, bool, error) {
	setClause, args := buildTaskUpdate(patch)
	query := `UPDATE tasks SET ` + setClause + ` WHERE id = $1 RETURNING ` + taskColumns

	var out dom.Task
	var found bool
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		t, err := scanTask(tx.QueryRow(ctx, query, append([]any{id}, args...)...))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		out, found = t, true
		return nil
	})
	if err != nil {
		return dom.Task{}, false, err
	}
	return out, found, nil
}

// Delete removes the row and reports whether anything was actually removed.
func (r *PGTaskRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// Exists is a cheap existence check without materializing the row.
func (r *PGTaskRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}
