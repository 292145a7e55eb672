package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForAndMessage(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{common.NewValidationError("name", "is required"), http.StatusBadRequest, "name: is required"},
		{common.ErrAuth, http.StatusUnauthorized, "invalid credentials"},
		{common.ErrNotAuthenticated, http.StatusUnauthorized, "not authenticated"},
		{fmt.Errorf("db error: %w", common.ErrNotFound), http.StatusNotFound, "not found"},
		{common.ErrConflict, http.StatusConflict, "already exists"},
		{common.ErrRateLimited, http.StatusTooManyRequests, common.ErrRateLimited.Error()},
		{common.ErrStorage, http.StatusInternalServerError, "storage error"},
		{errors.New(`pq: relation "tasks" does not exist`), http.StatusInternalServerError, "storage error"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(tt.err))
			assert.Equal(t, tt.message, errorMessage(tt.err))
		})
	}
}

func TestReadBag(t *testing.T) {
	t.Run("json scalars", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","assigneeId":7,"done":true,"dueDate":null}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		bag, err := readBag(httptest.NewRecorder(), r)
		require.NoError(t, err)
		assert.Equal(t, "x", bag.Get("name"))
		assert.Equal(t, "7", bag.Get("assigneeId"))
		assert.Equal(t, "true", bag.Get("done"))
		assert.True(t, bag.Has("dueDate"))
		assert.Empty(t, bag.Get("dueDate"))
	})

	t.Run("form", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(url.Values{"name": {"y"}}.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		bag, err := readBag(httptest.NewRecorder(), r)
		require.NoError(t, err)
		assert.Equal(t, "y", bag.Get("name"))
	})

	t.Run("broken json", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		r.Header.Set("Content-Type", "application/json")

		_, err := readBag(httptest.NewRecorder(), r)
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestUpdateTaskInput_OnlyPresentFields(t *testing.T) {
	in, err := updateTaskInput(url.Values{"assigneeId": {""}, "priority": {"low"}})
	require.NoError(t, err)

	assert.Nil(t, in.Name)
	assert.Nil(t, in.Description)
	require.NotNil(t, in.Priority)
	assert.EqualValues(t, "low", *in.Priority)
	assert.False(t, in.DueDate.Set)
	assert.True(t, in.AssigneeID.Set)
	assert.Nil(t, in.AssigneeID.Value)
}

func TestParsePositiveID(t *testing.T) {
	id, err := parsePositiveID("id", "42")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	for _, bad := range []string{"", "0", "-1", "x1"} {
		_, err := parsePositiveID("id", bad)
		assert.ErrorIs(t, err, common.ErrValidation, bad)
	}
}
