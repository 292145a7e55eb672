package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/dmitrijs2005/taskboard/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// readBag returns the submitted fields as a flat bag. A JSON object body is
// accepted as well as url-encoded and multipart forms; JSON null becomes an
// empty value, which clears nullable fields.
func readBag(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, common.NewValidationError("", "malformed form body")
		}
		return r.PostForm, nil
	}

	raw := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, common.NewValidationError("", "malformed JSON body")
	}

	bag := url.Values{}
	for k, v := range raw {
		switch v := v.(type) {
		case nil:
			bag.Set(k, "")
		case string:
			bag.Set(k, v)
		case float64:
			bag.Set(k, strconv.FormatFloat(v, 'f', -1, 64))
		case bool:
			bag.Set(k, strconv.FormatBool(v))
		default:
			return nil, common.NewValidationError(k, "must be a scalar value")
		}
	}
	return bag, nil
}

func signupInput(v url.Values) services.SignupInput {
	return services.SignupInput{
		Email:    v.Get("email"),
		Password: v.Get("password"),
		Name:     v.Get("name"),
	}
}

func loginInput(v url.Values) services.LoginInput {
	return services.LoginInput{
		Email:    v.Get("email"),
		Password: v.Get("password"),
	}
}

func createTaskInput(v url.Values) (services.CreateTaskInput, error) {
	in := services.CreateTaskInput{
		Name:        v.Get("name"),
		Description: v.Get("description"),
		Priority:    models.Priority(strings.TrimSpace(v.Get("priority"))),
		Status:      models.Status(strings.TrimSpace(v.Get("status"))),
	}

	if s := strings.TrimSpace(v.Get("dueDate")); s != "" {
		d, err := models.ParseDueDate(s)
		if err != nil {
			return in, common.NewValidationError("dueDate", "must be a date (YYYY-MM-DD)")
		}
		in.DueDate = &d
	}

	if s := strings.TrimSpace(v.Get("assigneeId")); s != "" {
		id, err := parsePositiveID("assigneeId", s)
		if err != nil {
			return in, err
		}
		in.AssigneeID = &id
	}
	return in, nil
}

// updateTaskInput only sets the fields present in the bag. An empty
// dueDate or assigneeId clears it.
func updateTaskInput(v url.Values) (services.UpdateTaskInput, error) {
	var in services.UpdateTaskInput

	if v.Has("name") {
		s := v.Get("name")
		in.Name = &s
	}
	if v.Has("description") {
		s := v.Get("description")
		in.Description = &s
	}
	if v.Has("priority") {
		p := models.Priority(strings.TrimSpace(v.Get("priority")))
		in.Priority = &p
	}
	if v.Has("status") {
		st := models.Status(strings.TrimSpace(v.Get("status")))
		in.Status = &st
	}

	if v.Has("dueDate") {
		in.DueDate.Set = true
		if s := strings.TrimSpace(v.Get("dueDate")); s != "" {
			d, err := models.ParseDueDate(s)
			if err != nil {
				return in, common.NewValidationError("dueDate", "must be a date (YYYY-MM-DD)")
			}
			in.DueDate.Value = &d
		}
	}

	if v.Has("assigneeId") {
		in.AssigneeID.Set = true
		if s := strings.TrimSpace(v.Get("assigneeId")); s != "" {
			id, err := parsePositiveID("assigneeId", s)
			if err != nil {
				return in, err
			}
			in.AssigneeID.Value = &id
		}
	}
	return in, nil
}

func taskFilter(q url.Values) (models.TaskFilter, error) {
	f := models.TaskFilter{
		Status:   models.Status(q.Get("status")),
		Priority: models.Priority(q.Get("priority")),
	}
	if s := q.Get("assigneeId"); s != "" {
		id, err := parsePositiveID("assigneeId", s)
		if err != nil {
			return f, err
		}
		f.AssigneeID = &id
	}
	if s := q.Get("creatorId"); s != "" {
		id, err := parsePositiveID("creatorId", s)
		if err != nil {
			return f, err
		}
		f.CreatorID = &id
	}
	return f, nil
}

func idParam(r *http.Request) (int64, error) {
	return parsePositiveID("id", chi.URLParam(r, "id"))
}

func parsePositiveID(field, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewValidationError(field, fmt.Sprintf("must be a positive integer, got %q", s))
	}
	return id, nil
}
