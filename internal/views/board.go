// Package views turns task snapshots into the shapes the board and the
// dashboard render. Everything here is a pure function of its input.
package views

import "github.com/dmitrijs2005/taskboard/internal/server/models"

// Column is one board lane.
type Column struct {
	Status models.Status  `json:"status"`
	Title  string         `json:"title"`
	Tasks  []*models.Task `json:"tasks"`
}

// Board holds the four lanes in workflow order. Dropped counts tasks whose
// status matched no lane; they are not shown.
type Board struct {
	Columns []Column `json:"columns"`
	Dropped int      `json:"-"`
}

// BuildBoard groups tasks by status, keeping their input order inside each
// column.
func BuildBoard(tasks []*models.Task) Board {
	statuses := models.ValidStatuses()
	board := Board{Columns: make([]Column, len(statuses))}
	index := make(map[models.Status]int, len(statuses))
	for i, s := range statuses {
		board.Columns[i] = Column{Status: s, Title: s.Label(), Tasks: []*models.Task{}}
		index[s] = i
	}

	for _, t := range tasks {
		i, ok := index[t.Status]
		if !ok {
			board.Dropped++
			continue
		}
		board.Columns[i].Tasks = append(board.Columns[i].Tasks, t)
	}
	return board
}

// Column returns the lane for status, or nil.
func (b Board) Column(status models.Status) *Column {
	for i := range b.Columns {
		if b.Columns[i].Status == status {
			return &b.Columns[i]
		}
	}
	return nil
}
