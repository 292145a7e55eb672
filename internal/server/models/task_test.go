package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_IsValid(t *testing.T) {
	for _, s := range ValidStatuses() {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, Status("bogus").IsValid())
	assert.False(t, Status("").IsValid())
	assert.False(t, Status("DONE").IsValid())
}

func TestPriority_IsValid(t *testing.T) {
	for _, p := range ValidPriorities() {
		assert.True(t, p.IsValid(), p)
	}
	assert.False(t, Priority("urgent").IsValid())
}

func TestParseDueDate_PinsToLocalNoon(t *testing.T) {
	got, err := ParseDueDate("2024-05-31")
	require.NoError(t, err)

	assert.Equal(t, 12, got.Hour())
	assert.Equal(t, time.Local, got.Location())
	assert.Equal(t, "2024-05-31", FormatDueDate(got))
}

func TestParseDueDate_RFC3339KeepsCallerDate(t *testing.T) {
	// late evening in a zone far west of UTC is already the next day in UTC
	got, err := ParseDueDate("2024-05-31T23:30:00-10:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-31", FormatDueDate(got))
}

func TestParseDueDate_Idempotent(t *testing.T) {
	first, err := ParseDueDate("2024-01-01")
	require.NoError(t, err)
	second := NormalizeDueDate(first)
	assert.True(t, first.Equal(second))
}

func TestParseDueDate_Invalid(t *testing.T) {
	_, err := ParseDueDate("next tuesday")
	assert.Error(t, err)
}

func TestTaskFilter_Match(t *testing.T) {
	one, two := int64(1), int64(2)
	task := &Task{Status: StatusReview, Priority: PriorityLow, AssigneeID: &one, CreatorID: 2}

	assert.True(t, TaskFilter{}.Match(task))
	assert.True(t, TaskFilter{Status: StatusReview, AssigneeID: &one, CreatorID: &two}.Match(task))
	assert.False(t, TaskFilter{Status: StatusDone}.Match(task))
	assert.False(t, TaskFilter{Priority: PriorityHigh}.Match(task))
	assert.False(t, TaskFilter{AssigneeID: &two}.Match(task))
	assert.False(t, TaskFilter{CreatorID: &one}.Match(task))
	assert.False(t, TaskFilter{AssigneeID: &one}.Match(&Task{}))
}

func TestUser_JSONOmitsPasswordHash(t *testing.T) {
	u := &User{ID: 1, Email: "a@b.c", PasswordHash: "$2a$10$secret", Name: "Ann"}
	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "password")
	assert.Equal(t, PublicUser{ID: 1, Name: "Ann"}, u.Public())
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := &Session{CreatedAt: now.Add(-2 * time.Hour)}
	assert.False(t, s.Expired(0, now))
	assert.False(t, s.Expired(3*time.Hour, now))
	assert.True(t, s.Expired(time.Hour, now))
}
