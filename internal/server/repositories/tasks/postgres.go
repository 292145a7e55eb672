// Package tasks provides PostgreSQL-backed and in-memory task repositories.
package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/dbx"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
)

// PostgresRepository implements task storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectTasks = `
	SELECT t.id, t.name, t.description, t.priority, t.status, t.due_date,
		t.assignee_id, a.name, t.creator_id, c.name, t.created_at, t.updated_at
	FROM tasks t
	JOIN users c ON c.id = t.creator_id
	LEFT JOIN users a ON a.id = t.assignee_id`

// bumpUpdatedAt keeps updated_at strictly increasing even when two writes
// land inside the same clock tick.
const bumpUpdatedAt = `updated_at = GREATEST(now(), updated_at + interval '1 microsecond')`

// Create inserts a new task row.
func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query := `
		INSERT INTO tasks (name, description, priority, status, due_date, assignee_id, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		task.Name, task.Description, string(task.Priority), string(task.Status),
		nullTime(task), nullID(task.AssigneeID), task.CreatorID,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

// GetByID loads one task with its creator and assignee names.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx, selectTasks+` WHERE t.id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

// List returns tasks matching filter ordered by creation time, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		add("t.status = $%d", string(filter.Status))
	}
	if filter.Priority != "" {
		add("t.priority = $%d", string(filter.Priority))
	}
	if filter.AssigneeID != nil {
		add("t.assignee_id = $%d", *filter.AssigneeID)
	}
	if filter.CreatorID != nil {
		add("t.creator_id = $%d", *filter.CreatorID)
	}

	query := selectTasks
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY t.created_at DESC, t.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	result := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Update overwrites the editable fields of an existing task.
func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET name = $1, description = $2, priority = $3, status = $4,
			due_date = $5, assignee_id = $6, ` + bumpUpdatedAt + `
		WHERE id = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		task.Name, task.Description, string(task.Priority), string(task.Status),
		nullTime(task), nullID(task.AssigneeID), task.ID,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.SingleRow(res)
}

// UpdateStatus touches nothing but status and updated_at.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	query := `UPDATE tasks SET status = $1, ` + bumpUpdatedAt + ` WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.SingleRow(res)
}

// Delete removes a task permanently.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.SingleRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*models.Task, error) {
	var (
		t            models.Task
		priority     string
		status       string
		due          sql.NullTime
		assigneeID   sql.NullInt64
		assigneeName sql.NullString
	)
	if err := s.Scan(
		&t.ID, &t.Name, &t.Description, &priority, &status, &due,
		&assigneeID, &assigneeName, &t.CreatorID, &t.Creator.Name, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Priority = models.Priority(priority)
	t.Status = models.Status(status)
	t.Creator.ID = t.CreatorID
	if due.Valid {
		d := models.NormalizeDueDate(due.Time.In(time.Local))
		t.DueDate = &d
	}
	if assigneeID.Valid {
		id := assigneeID.Int64
		t.AssigneeID = &id
		t.Assignee = &models.PublicUser{ID: id, Name: assigneeName.String}
	}
	return &t, nil
}

func nullTime(t *models.Task) sql.NullTime {
	if t.DueDate == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t.DueDate, Valid: true}
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
