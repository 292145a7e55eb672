package httpserver

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/server/services"
	"github.com/dmitrijs2005/taskboard/internal/views"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	bag, err := readBag(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	u, err := s.auth.Signup(r.Context(), signupInput(bag))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Account created. Please log in.", envelope{"user": u.Public()})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	bag, err := readBag(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	token, u, err := s.auth.Login(r.Context(), loginInput(bag))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.setSessionCookie(w, r, token); err != nil {
		s.logger.Error(r.Context(), "set session cookie", "error", err)
		// the client never got the token, so the session must not outlive this request
		if lerr := s.auth.Logout(r.Context(), token); lerr != nil {
			s.logger.Error(r.Context(), "drop undelivered session", "error", lerr)
		}
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Logged in.", envelope{"user": u})
}

// handleLogout always clears the cookie; an anonymous logout succeeds.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	err := s.auth.Logout(r.Context(), tokenFromContext(r.Context()))

	if cerr := s.clearSessionCookie(w, r); cerr != nil {
		s.logger.Warn(r.Context(), "clear session cookie", "error", cerr)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Logged out.", nil)
}

// handleMe answers {user: null} for anonymous callers rather than 401.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := services.UserFromContext(r.Context())
	if err != nil {
		writeRead(w, "user", nil)
		return
	}
	writeRead(w, "user", u)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := taskFilter(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	tasks, err := s.tasks.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRead(w, "tasks", tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	bag, err := readBag(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	in, err := createTaskInput(bag)
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := s.tasks.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Task created.", envelope{"task": task})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := s.tasks.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRead(w, "task", task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	bag, err := readBag(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	in, err := updateTaskInput(bag)
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := s.tasks.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Task updated.", envelope{"task": task})
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	bag, err := readBag(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	in, err := updateTaskInput(bag)
	if err != nil {
		writeError(w, err)
		return
	}
	if in.Status == nil {
		writeError(w, common.NewValidationError("status", "is required"))
		return
	}

	task, err := s.tasks.UpdateStatus(r.Context(), id, *in.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Status updated.", envelope{"task": task})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.tasks.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Task deleted.", nil)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.tasks.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeRead(w, "users", users)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	board, err := s.tasks.Board(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeRead(w, "board", board)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := s.tasks.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeRead(w, "dashboard", dash)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var fold func(context.Context) (views.Series, error)

	switch chi.URLParam(r, "aggregate") {
	case "status":
		fold = s.tasks.CountByStatus
	case "priority":
		fold = s.tasks.CountByPriority
	case "assignee":
		fold = s.tasks.CountByAssignee
	case "month":
		fold = s.tasks.CountByCreationMonth
	default:
		writeError(w, common.ErrNotFound)
		return
	}

	series, err := fold(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeRead(w, "series", series)
}
