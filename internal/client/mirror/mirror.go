// Package mirror applies a mutation to the client's local task snapshot
// before the server has confirmed it. Every function returns a new slice and
// leaves its input untouched; the snapshot is thrown away on the next refresh.
package mirror

import (
	"github.com/dmitrijs2005/taskboard/internal/server/models"
)

// Delete removes the task with id. An unknown id yields an unchanged copy.
func Delete(tasks []*models.Task, id int64) []*models.Task {
	out := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// ToggleStatus flips a task between done and todo. Any status other than
// done counts as not done and becomes done.
func ToggleStatus(tasks []*models.Task, id int64) []*models.Task {
	return update(tasks, id, func(t *models.Task) {
		t.Status = Toggled(t.Status)
	})
}

// Toggled is the status ToggleStatus moves s to.
func Toggled(s models.Status) models.Status {
	if s == models.StatusDone {
		return models.StatusTodo
	}
	return models.StatusDone
}

// Move puts the task into the status column. The task keeps its position in
// the list, so it shows up in the column at the place its order dictates.
func Move(tasks []*models.Task, id int64, status models.Status) []*models.Task {
	return update(tasks, id, func(t *models.Task) {
		t.Status = status
	})
}

// Replace discards the snapshot in favour of a fresh server response.
func Replace(_ []*models.Task, fresh []*models.Task) []*models.Task {
	out := make([]*models.Task, len(fresh))
	copy(out, fresh)
	return out
}

func update(tasks []*models.Task, id int64, fn func(*models.Task)) []*models.Task {
	out := make([]*models.Task, len(tasks))
	for i, t := range tasks {
		if t.ID == id {
			c := *t
			fn(&c)
			t = &c
		}
		out[i] = t
	}
	return out
}
