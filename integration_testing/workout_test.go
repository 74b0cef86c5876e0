//go:build integration_test || all_tests

package integration_testing

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/2beens/abtracker/internal/misc"
	"github.com/2beens/abtracker/internal/workout"
	"github.com/2beens/abtracker/internal/workout/handler"
	"github.com/2beens/abtracker/internal/workout/session"
	"github.com/2beens/abtracker/pkg"
	pkgtesting "github.com/2beens/abtracker/pkg/testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logSessionRequest(inputs map[string][2]string) handler.LogSessionRequest {
	req := handler.LogSessionRequest{Inputs: make(map[string]session.RawInput, len(inputs))}
	for exerciseID, in := range inputs {
		req.Inputs[exerciseID] = session.RawInput{Weight: in[0], Reps: in[1]}
	}
	return req
}

func (s *IntegrationTestSuite) TestHealth() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	status, body := s.doRequest(ctx, http.MethodGet, "/health", nil, false)
	require.Equal(t, http.StatusOK, status)

	var healthResp misc.HealthResponse
	require.NoError(t, json.Unmarshal(body, &healthResp))
	assert.Equal(t, "ok", healthResp.Status)
	assert.Equal(t, map[string]string{"redis": "up", "postgres": "up"}, healthResp.Services)

	status, body = s.doRequest(ctx, http.MethodGet, "/version", nil, false)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "test-version-info", string(body))
}

func (s *IntegrationTestSuite) TestCatalog() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	status, body := s.doRequest(ctx, http.MethodGet, "/catalog/templates/B", nil, false)
	require.Equal(t, http.StatusOK, status)

	var templateResp handler.TemplateResponse
	require.NoError(t, json.Unmarshal(body, &templateResp))
	assert.Equal(t, "Workout B", templateResp.Name)
	require.Len(t, templateResp.Exercises, 3)
	assert.Equal(t, "deadlift", templateResp.Exercises[0].ID)
	assert.Equal(t, "incline_press", templateResp.Exercises[1].ID)
	assert.Equal(t, "dips", templateResp.Exercises[2].ID)

	status, _ = s.doRequest(ctx, http.MethodGet, "/catalog/templates/C", nil, false)
	assert.Equal(t, http.StatusNotFound, status)
}

func (s *IntegrationTestSuite) TestWriteRoutesNeedToken() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	req := logSessionRequest(map[string][2]string{
		"squat":    {"135", "5"},
		"pulldown": {"100", "8"},
	})
	status, _ := s.doRequest(ctx, http.MethodPost, "/sessions/A", req, false)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.doRequest(ctx, http.MethodPut, "/preferences/partial", map[string]bool{"allowPartial": true}, false)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func (s *IntegrationTestSuite) TestLogSessionsAndProgress() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	status, body := s.doRequest(ctx, http.MethodGet, "/sessions", nil, false)
	require.Equal(t, http.StatusOK, status)
	var sessionsResp handler.SessionsResponse
	require.NoError(t, json.Unmarshal(body, &sessionsResp))
	loggedBefore := sessionsResp.Total

	// strict mode rejects a missing exercise and logs nothing
	status, body = s.doRequest(ctx, http.MethodPost, "/sessions/A", logSessionRequest(map[string][2]string{
		"squat": {"135", "5"},
	}), true)
	require.Equal(t, http.StatusBadRequest, status)
	var errResp pkg.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, session.ReasonIncompleteStrictSubmission.String(), errResp.Reason)
	assert.Equal(t, session.ReasonIncompleteStrictSubmission.Message(), errResp.Message)

	var logged []workout.LogEntry
	for _, inputs := range []map[string][2]string{
		{"squat": {"135", "5"}, "pulldown": {"100", "8"}},
		{"squat": {"140", "5"}, "pulldown": {"105", "8"}},
	} {
		status, body = s.doRequest(ctx, http.MethodPost, "/sessions/A", logSessionRequest(inputs), true)
		require.Equal(t, http.StatusCreated, status, string(body))
		var entry workout.LogEntry
		require.NoError(t, json.Unmarshal(body, &entry))
		logged = append(logged, entry)
	}
	assert.Greater(t, logged[1].ID, logged[0].ID)
	assert.Equal(t, []workout.SetEntry{
		{ExerciseID: "squat", Weight: 140, Reps: 5},
		{ExerciseID: "pulldown", Weight: 105, Reps: 8},
	}, logged[1].Sets)

	// partial sessions, once enabled, are accepted and stored in redis
	status, _ = s.doRequest(ctx, http.MethodPut, "/preferences/partial", map[string]bool{"allowPartial": true}, true)
	require.Equal(t, http.StatusOK, status)

	rdb := pkgtesting.GetRedisClient(t, "localhost", s.redisPort)
	stored, err := rdb.Get(ctx, "abtracker:prefs:allow_partial_sessions").Result()
	require.NoError(t, err)
	assert.Equal(t, "true", stored)

	status, body = s.doRequest(ctx, http.MethodPost, "/sessions/B", logSessionRequest(map[string][2]string{
		"deadlift": {"225", "3"},
		"dips":     {" ", ""},
	}), true)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = s.doRequest(ctx, http.MethodPost, "/sessions/B", logSessionRequest(map[string][2]string{
		"deadlift": {"225", ""},
	}), true)
	require.Equal(t, http.StatusBadRequest, status)
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, session.ReasonInconsistentPartialEntry.String(), errResp.Reason)

	status, _ = s.doRequest(ctx, http.MethodPut, "/preferences/partial", map[string]bool{"allowPartial": false}, true)
	require.Equal(t, http.StatusOK, status)

	status, body = s.doRequest(ctx, http.MethodGet, "/sessions", nil, false)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &sessionsResp))
	assert.Equal(t, loggedBefore+3, sessionsResp.Total)

	// the squat series spans both A sessions, indexed over the whole log
	status, body = s.doRequest(ctx, http.MethodGet, "/progress/squat", nil, false)
	require.Equal(t, http.StatusOK, status)
	var squatProgress handler.ExerciseProgressResponse
	require.NoError(t, json.Unmarshal(body, &squatProgress))
	require.GreaterOrEqual(t, len(squatProgress.Points), 2)
	lastTwo := squatProgress.Points[len(squatProgress.Points)-2:]
	assert.Equal(t, loggedBefore+1, lastTwo[0].SessionIndex)
	assert.Equal(t, loggedBefore+2, lastTwo[1].SessionIndex)
	assert.Equal(t, 140.0, lastTwo[1].Weight)
	assert.Len(t, squatProgress.Normalized, len(squatProgress.Points))

	status, body = s.doRequest(ctx, http.MethodGet, "/progress", nil, false)
	require.Equal(t, http.StatusOK, status)
	var progressResp handler.ProgressResponse
	require.NoError(t, json.Unmarshal(body, &progressResp))
	assert.Equal(t, "squat", progressResp.DefaultExerciseID)

	exerciseIDs := make([]string, 0, len(progressResp.Exercises))
	for _, ex := range progressResp.Exercises {
		exerciseIDs = append(exerciseIDs, ex.Exercise.ID)
	}
	assert.Contains(t, exerciseIDs, "deadlift")
	assert.NotContains(t, exerciseIDs, "incline_press")
}
