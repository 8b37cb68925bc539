package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"challenge-crawler/internal/database"
	"challenge-crawler/internal/language"
)

type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) CreateProject(ctx context.Context, arg database.CreateProjectParams) (database.Project, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.Project), args.Error(1)
}
func (m *mockQuerier) GetChallengeByPathAndProject(ctx context.Context, arg database.GetChallengeByPathAndProjectParams) (database.Challenge, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.Challenge), args.Error(1)
}
func (m *mockQuerier) GetProjectByFullName(ctx context.Context, fullName string) (database.Project, error) {
	args := m.Called(ctx, fullName)
	return args.Get(0).(database.Project), args.Error(1)
}
func (m *mockQuerier) GetRandomChallenge(ctx context.Context, lang string) (database.Challenge, error) {
	args := m.Called(ctx, lang)
	return args.Get(0).(database.Challenge), args.Error(1)
}
func (m *mockQuerier) InsertChallenge(ctx context.Context, arg database.InsertChallengeParams) (database.Challenge, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.Challenge), args.Error(1)
}
func (m *mockQuerier) ListChallengeLanguages(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}
func (m *mockQuerier) ListChallengesByProject(ctx context.Context, projectID int64) ([]database.Challenge, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]database.Challenge), args.Error(1)
}
func (m *mockQuerier) ListProjects(ctx context.Context) ([]database.Project, error) {
	args := m.Called(ctx)
	return args.Get(0).([]database.Project), args.Error(1)
}
func (m *mockQuerier) UpsertChallengesByContent(ctx context.Context, arg []database.UpsertChallengeByContentParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}

func newTestServer(t *testing.T, q *mockQuerier) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	srv := httptest.NewServer(NewRouter(q, logger, promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

var widgets = database.Project{
	ID: 7, FullName: "acme/widgets", Language: "ts",
	HtmlUrl: "https://github.com/acme/widgets", DefaultBranch: "main",
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, new(mockQuerier))

	resp := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetLanguages(t *testing.T) {
	q := new(mockQuerier)
	q.On("ListChallengeLanguages", mock.Anything).Return([]string{"ts", "go", "cs"}, nil)
	srv := newTestServer(t, q)

	resp := do(t, http.MethodGet, srv.URL+"/v1/languages", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []language.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []language.Entry{
		{Language: "cs", Name: "C-Sharp"},
		{Language: "go", Name: "Go"},
		{Language: "ts", Name: "TypeScript"},
	}, got)
}

func TestGetRandomChallenge(t *testing.T) {
	t.Run("returns a challenge for the language", func(t *testing.T) {
		q := new(mockQuerier)
		q.On("GetRandomChallenge", mock.Anything, "ts").Return(database.Challenge{ID: 3, Path: "src/main.ts", Language: "ts"}, nil)
		srv := newTestServer(t, q)

		resp := do(t, http.MethodGet, srv.URL+"/v1/challenges/random?language=TS", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got database.Challenge
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "src/main.ts", got.Path)
		q.AssertExpectations(t)
	})

	t.Run("404 when none match", func(t *testing.T) {
		q := new(mockQuerier)
		q.On("GetRandomChallenge", mock.Anything, "").Return(database.Challenge{}, pgx.ErrNoRows)
		srv := newTestServer(t, q)

		resp := do(t, http.MethodGet, srv.URL+"/v1/challenges/random", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestGetChallenges(t *testing.T) {
	t.Run("lists challenges of a project", func(t *testing.T) {
		q := new(mockQuerier)
		q.On("GetProjectByFullName", mock.Anything, "acme/widgets").Return(widgets, nil)
		q.On("ListChallengesByProject", mock.Anything, int64(7)).Return([]database.Challenge{{ID: 1, Path: "src/main.ts"}}, nil)
		srv := newTestServer(t, q)

		resp := do(t, http.MethodGet, srv.URL+"/v1/projects/acme/widgets/challenges", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got []database.Challenge
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Len(t, got, 1)
	})

	t.Run("unknown project", func(t *testing.T) {
		q := new(mockQuerier)
		q.On("GetProjectByFullName", mock.Anything, "acme/nope").Return(database.Project{}, pgx.ErrNoRows)
		srv := newTestServer(t, q)

		resp := do(t, http.MethodGet, srv.URL+"/v1/projects/acme/nope/challenges", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		q.AssertNotCalled(t, "ListChallengesByProject", mock.Anything, mock.Anything)
	})

	t.Run("database failure", func(t *testing.T) {
		q := new(mockQuerier)
		q.On("GetProjectByFullName", mock.Anything, "acme/widgets").Return(database.Project{}, errors.New("boom"))
		srv := newTestServer(t, q)

		resp := do(t, http.MethodGet, srv.URL+"/v1/projects/acme/widgets/challenges", "")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestGetProjects(t *testing.T) {
	q := new(mockQuerier)
	q.On("ListProjects", mock.Anything).Return([]database.Project{widgets}, nil)
	srv := newTestServer(t, q)

	resp := do(t, http.MethodGet, srv.URL+"/v1/projects", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []database.Project
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "acme/widgets", got[0].FullName)
}

func TestImportChallenges(t *testing.T) {
	t.Run("normalizes and upserts", func(t *testing.T) {
		q := new(mockQuerier)
		q.On("GetProjectByFullName", mock.Anything, "acme/widgets").Return(widgets, nil)
		q.On("UpsertChallengesByContent", mock.Anything, []database.UpsertChallengeByContentParams{{
			ProjectID: 7,
			Path:      "src/a.ts",
			Sha:       "abc",
			Language:  "ts",
			Url:       "https://github.com/acme/widgets/blob/main/src/a.ts",
			Content:   "const a = 1;\nconst b = 2;",
			Loc:       2,
		}}).Return(int64(1), nil).Once()
		srv := newTestServer(t, q)

		body := `[{"path":"src/a.ts","sha":"abc","content":"// note\nconst a = 1;\nconst b = 2;"}]`
		resp := do(t, http.MethodPut, srv.URL+"/v1/projects/acme/widgets/challenges", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got importResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, importResult{Received: 1, Affected: 1}, got)
		q.AssertExpectations(t)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		q := new(mockQuerier)
		q.On("GetProjectByFullName", mock.Anything, "acme/widgets").Return(widgets, nil)
		srv := newTestServer(t, q)

		resp := do(t, http.MethodPut, srv.URL+"/v1/projects/acme/widgets/challenges", `{"path":"x"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		q.AssertNotCalled(t, "UpsertChallengesByContent", mock.Anything, mock.Anything)
	})

	t.Run("rejects entries without content", func(t *testing.T) {
		q := new(mockQuerier)
		q.On("GetProjectByFullName", mock.Anything, "acme/widgets").Return(widgets, nil)
		srv := newTestServer(t, q)

		resp := do(t, http.MethodPut, srv.URL+"/v1/projects/acme/widgets/challenges", `[{"path":"x","content":"  "}]`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
