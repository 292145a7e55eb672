package views

import (
	"sort"
	"strconv"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/server/models"
)

// UnassignedKey is the assignee bucket for tasks without an assignee.
const UnassignedKey = "unassigned"

// Point is one category of a chart.
type Point struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Series is an ordered category -> count mapping.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Map flattens the series to key -> count.
func (s Series) Map() map[string]int {
	m := make(map[string]int, len(s.Points))
	for _, p := range s.Points {
		m[p.Key] = p.Count
	}
	return m
}

// Total sums all counts.
func (s Series) Total() int {
	n := 0
	for _, p := range s.Points {
		n += p.Count
	}
	return n
}

// Dashboard bundles the four aggregates.
type Dashboard struct {
	Total      int    `json:"total"`
	ByStatus   Series `json:"byStatus"`
	ByPriority Series `json:"byPriority"`
	ByAssignee Series `json:"byAssignee"`
	ByMonth    Series `json:"byMonth"`
}

func BuildDashboard(tasks []*models.Task) Dashboard {
	return Dashboard{
		Total:      len(tasks),
		ByStatus:   CountByStatus(tasks),
		ByPriority: CountByPriority(tasks),
		ByAssignee: CountByAssignee(tasks),
		ByMonth:    CountByCreationMonth(tasks),
	}
}

// CountByStatus always lists the four statuses, zeros included, in board
// order. Unknown statuses follow, sorted by key.
func CountByStatus(tasks []*models.Task) Series {
	known := models.ValidStatuses()
	keys := make([]string, len(known))
	labels := make(map[string]string, len(known))
	for i, s := range known {
		keys[i] = string(s)
		labels[string(s)] = s.Label()
	}
	return fixedSeries("status", keys, labels, tasks, func(t *models.Task) string { return string(t.Status) })
}

// CountByPriority lists high, medium, low, zeros included.
func CountByPriority(tasks []*models.Task) Series {
	known := models.ValidPriorities()
	keys := make([]string, len(known))
	labels := make(map[string]string, len(known))
	for i, p := range known {
		keys[i] = string(p)
		labels[string(p)] = capitalize(string(p))
	}
	return fixedSeries("priority", keys, labels, tasks, func(t *models.Task) string { return string(t.Priority) })
}

// CountByAssignee buckets by assignee id, busiest first. Ties sort by label.
func CountByAssignee(tasks []*models.Task) Series {
	counts := map[string]*Point{}
	for _, t := range tasks {
		key, label := UnassignedKey, "Unassigned"
		if t.AssigneeID != nil {
			key = strconv.FormatInt(*t.AssigneeID, 10)
			label = key
			if t.Assignee != nil && t.Assignee.Name != "" {
				label = t.Assignee.Name
			}
		}
		p, ok := counts[key]
		if !ok {
			p = &Point{Key: key, Label: label}
			counts[key] = p
		}
		p.Count++
	}

	points := make([]Point, 0, len(counts))
	for _, p := range counts {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Count != points[j].Count {
			return points[i].Count > points[j].Count
		}
		if points[i].Label != points[j].Label {
			return points[i].Label < points[j].Label
		}
		return points[i].Key < points[j].Key
	})
	return Series{Name: "assignee", Points: points}
}

// CountByCreationMonth buckets by local calendar month of CreatedAt,
// oldest first. Keys look like "2024-05".
func CountByCreationMonth(tasks []*models.Task) Series {
	counts := map[string]int{}
	for _, t := range tasks {
		counts[t.CreatedAt.In(time.Local).Format("2006-01")]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	points := make([]Point, len(keys))
	for i, k := range keys {
		label := k
		if m, err := time.Parse("2006-01", k); err == nil {
			label = m.Format("Jan 2006")
		}
		points[i] = Point{Key: k, Label: label, Count: counts[k]}
	}
	return Series{Name: "month", Points: points}
}

func fixedSeries(name string, keys []string, labels map[string]string, tasks []*models.Task, keyOf func(*models.Task) string) Series {
	counts := make(map[string]int, len(keys))
	for _, t := range tasks {
		counts[keyOf(t)]++
	}

	points := make([]Point, 0, len(keys))
	for _, k := range keys {
		points = append(points, Point{Key: k, Label: labels[k], Count: counts[k]})
		delete(counts, k)
	}

	extra := make([]string, 0, len(counts))
	for k := range counts {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		points = append(points, Point{Key: k, Label: k, Count: counts[k]})
	}
	return Series{Name: name, Points: points}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
