package cli

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
)

func (a *App) Refresh(ctx context.Context) error {
	tasks, err := a.taskService.Refresh(ctx)
	a.track(err)
	if err != nil {
		return err
	}
	a.printf("%d tasks loaded.\n", len(tasks))
	return nil
}

// List prints the mirrored tasks. Filters come as key=value arguments:
// status, priority, assignee, creator.
func (a *App) List(ctx context.Context, args []string) error {
	filter, err := parseFilter(args)
	if err != nil {
		return err
	}

	tasks, err := a.taskService.List(ctx, filter)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, renderTaskList(tasks))
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := parseID(args, "show <id>")
	if err != nil {
		return err
	}
	task, err := a.taskService.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, renderTask(task))
	return nil
}

func (a *App) Board(ctx context.Context) error {
	board, err := a.taskService.Board(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, renderBoard(board))
	return nil
}

func (a *App) Dashboard(ctx context.Context) error {
	dash, offline, err := a.taskService.Dashboard(ctx)
	if err != nil {
		a.track(err)
		return err
	}
	if offline {
		a.setMode(ModeOffline)
		a.printf("Server unreachable, counting local data.\n")
	} else {
		a.setMode(ModeOnline)
	}
	fmt.Fprintln(a.out, renderDashboard(dash))
	return nil
}

func (a *App) Users(ctx context.Context) error {
	users, err := a.taskService.Users(ctx)
	a.track(err)
	if err != nil {
		return err
	}
	for _, u := range users {
		a.printf("%4d  %s\n", u.ID, u.Name)
	}
	return nil
}

// Add prompts for a new task. Empty answers leave the server defaults.
func (a *App) Add(ctx context.Context) error {
	fields := url.Values{}

	prompts := []struct {
		key, prompt string
	}{
		{"name", "Task name"},
		{"priority", "Priority (high, medium, low) [medium]"},
		{"status", "Status (todo, in_progress, review, done) [todo]"},
		{"dueDate", "Due date (YYYY-MM-DD) [none]"},
		{"assigneeId", "Assignee id (see 'users') [none]"},
	}
	for i, p := range prompts {
		v, err := getSimpleText(a.reader, p.prompt, a.out)
		if err != nil {
			return err
		}
		if v != "" {
			fields.Set(p.key, v)
		}
		if i == 0 {
			desc, err := GetMultiline(a.reader, "Description", a.out)
			if err != nil {
				return err
			}
			if desc != "" {
				fields.Set("description", desc)
			}
		}
	}

	task, err := a.taskService.Create(ctx, fields)
	a.track(err)
	if err != nil {
		return err
	}
	a.printf("Task #%d created.\n", task.ID)
	return nil
}

// Edit prompts for every field with the current value as default. An empty
// answer keeps the value; "-" clears the due date or the assignee.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := parseID(args, "edit <id>")
	if err != nil {
		return err
	}
	cur, err := a.taskService.Get(ctx, id)
	if err != nil {
		return err
	}

	due, assignee := "none", "none"
	if cur.DueDate != nil {
		due = models.FormatDueDate(*cur.DueDate)
	}
	if cur.AssigneeID != nil {
		assignee = strconv.FormatInt(*cur.AssigneeID, 10)
	}

	prompts := []struct {
		key, prompt string
		clearable   bool
	}{
		{"name", fmt.Sprintf("Task name [%s]", cur.Name), false},
		{"description", "Description, one line [keep]", false},
		{"priority", fmt.Sprintf("Priority [%s]", cur.Priority), false},
		{"status", fmt.Sprintf("Status [%s]", cur.Status), false},
		{"dueDate", fmt.Sprintf("Due date [%s], '-' to clear", due), true},
		{"assigneeId", fmt.Sprintf("Assignee id [%s], '-' to clear", assignee), true},
	}

	fields := url.Values{}
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p.prompt, a.out)
		if err != nil {
			return err
		}
		switch {
		case v == "":
		case v == clearValue && p.clearable:
			fields.Set(p.key, "")
		default:
			fields.Set(p.key, v)
		}
	}

	if len(fields) == 0 {
		a.printf("Nothing to change.\n")
		return nil
	}

	_, err = a.taskService.Edit(ctx, id, fields)
	a.track(err)
	if err != nil {
		return err
	}
	a.printf("Task #%d updated.\n", id)
	return nil
}

func (a *App) Move(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return common.NewValidationError("", "usage: move <id> <todo|in_progress|review|done>")
	}
	id, err := parseID(args[:1], "move <id> <status>")
	if err != nil {
		return err
	}
	status := models.Status(strings.ToLower(args[1]))

	if err := a.taskService.Move(ctx, id, status); err != nil {
		return err
	}
	a.printf("Task #%d moved to %s.\n", id, status.Label())
	return nil
}

func (a *App) Toggle(ctx context.Context, args []string) error {
	id, err := parseID(args, "toggle <id>")
	if err != nil {
		return err
	}
	status, err := a.taskService.Toggle(ctx, id)
	if err != nil {
		return err
	}
	a.printf("Task #%d is now %s.\n", id, status.Label())
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := parseID(args, "delete <id>")
	if err != nil {
		return err
	}
	if err := a.taskService.Delete(ctx, id); err != nil {
		return err
	}
	a.printf("Task #%d deleted.\n", id)
	return nil
}

func parseID(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, common.NewValidationError("", "usage: "+usage)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

func parseFilter(args []string) (models.TaskFilter, error) {
	var f models.TaskFilter
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || value == "" {
			return f, common.NewValidationError("", "filters look like status=todo")
		}

		switch key {
		case "status":
			f.Status = models.Status(value)
			if !f.Status.IsValid() {
				return f, common.NewValidationError("status", "must be one of todo, in_progress, review, done")
			}
		case "priority":
			f.Priority = models.Priority(value)
			if !f.Priority.IsValid() {
				return f, common.NewValidationError("priority", "must be one of high, medium, low")
			}
		case "assignee", "creator":
			id, err := parseID([]string{value}, key+"=<id>")
			if err != nil {
				return f, common.NewValidationError(key, "must be a positive integer")
			}
			if key == "assignee" {
				f.AssigneeID = &id
			} else {
				f.CreatorID = &id
			}
		default:
			return f, common.NewValidationError(key, "unknown filter")
		}
	}
	return f, nil
}
