package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/dbx"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
)

const selectColumns = `id, name, description, priority, status, due_date, assignee_id, assignee_name,
	creator_id, creator_name, created_at, updated_at`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, tasks []*models.Task) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
			return fmt.Errorf("clear mirror: %w", err)
		}

		for i, t := range tasks {
			if err := insert(ctx, tx, t, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func insert(ctx context.Context, db dbx.DBTX, t *models.Task, position int) error {
	var (
		due          sql.NullString
		assigneeID   sql.NullInt64
		assigneeName sql.NullString
	)
	if t.DueDate != nil {
		due = sql.NullString{String: models.FormatDueDate(*t.DueDate), Valid: true}
	}
	if t.AssigneeID != nil {
		assigneeID = sql.NullInt64{Int64: *t.AssigneeID, Valid: true}
	}
	if t.Assignee != nil {
		assigneeName = sql.NullString{String: t.Assignee.Name, Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks (id, name, description, priority, status, due_date, assignee_id, assignee_name,
			creator_id, creator_name, created_at, updated_at, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Description, string(t.Priority), string(t.Status), due, assigneeID, assigneeName,
		t.CreatorID, t.Creator.Name, formatTime(t.CreatedAt), formatTime(t.UpdatedAt), position)
	if err != nil {
		return fmt.Errorf("insert mirrored task %d: %w", t.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM tasks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("select mirrored tasks: %w", err)
	}
	defer rows.Close()

	result := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return t, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*models.Task, error) {
	var (
		t                    models.Task
		priority, status     string
		due                  sql.NullString
		assigneeID           sql.NullInt64
		assigneeName         sql.NullString
		createdAt, updatedAt string
	)
	err := s.Scan(&t.ID, &t.Name, &t.Description, &priority, &status, &due, &assigneeID, &assigneeName,
		&t.CreatorID, &t.Creator.Name, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.Priority = models.Priority(priority)
	t.Status = models.Status(status)
	t.Creator.ID = t.CreatorID

	if due.Valid {
		d, err := models.ParseDueDate(due.String)
		if err != nil {
			return nil, fmt.Errorf("mirrored task %d: %w", t.ID, err)
		}
		t.DueDate = &d
	}
	if assigneeID.Valid {
		id := assigneeID.Int64
		t.AssigneeID = &id
		t.Assignee = &models.PublicUser{ID: id, Name: assigneeName.String}
	}

	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}
