// internal/api/handler.go
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"

	"challenge-crawler/internal/database"
	"challenge-crawler/internal/language"
	"challenge-crawler/internal/normalize"
)

// maxImportBody bounds the size of a bulk import request.
const maxImportBody = 16 << 20

// Handler is the container for API dependencies.
type Handler struct {
	db     database.Querier
	logger *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
// metricsHandler is mounted at /metrics when non-nil.
func NewRouter(db database.Querier, logger *slog.Logger, metricsHandler http.Handler) http.Handler {
	h := &Handler{
		db:     db,
		logger: logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/languages", h.getLanguages)
		r.Get("/challenges/random", h.getRandomChallenge)
		r.Get("/projects", h.getProjects)
		r.Get("/projects/{owner}/{name}/challenges", h.getChallenges)
		r.Put("/projects/{owner}/{name}/challenges", h.importChallenges)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getLanguages lists the languages that have at least one challenge.
// GET /v1/languages
func (h *Handler) getLanguages(w http.ResponseWriter, r *http.Request) {
	codes, err := h.db.ListChallengeLanguages(r.Context())
	if err != nil {
		h.logger.Error("Failed to list languages", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, language.Entries(codes))
}

// getRandomChallenge picks one challenge, optionally restricted to a language.
// GET /v1/challenges/random?language=ts
func (h *Handler) getRandomChallenge(w http.ResponseWriter, r *http.Request) {
	lang := strings.ToLower(r.URL.Query().Get("language"))

	challenge, err := h.db.GetRandomChallenge(r.Context(), lang)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "No challenge found")
			return
		}
		h.logger.Error("Failed to get random challenge", "language", lang, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, challenge)
}

// getProjects lists every stored project.
// GET /v1/projects
func (h *Handler) getProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.db.ListProjects(r.Context())
	if err != nil {
		h.logger.Error("Failed to list projects", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, projects)
}

// getChallenges handles the request to retrieve challenges for a project.
// GET /v1/projects/{owner}/{name}/challenges
func (h *Handler) getChallenges(w http.ResponseWriter, r *http.Request) {
	project, ok := h.lookupProject(w, r)
	if !ok {
		return
	}

	challenges, err := h.db.ListChallengesByProject(r.Context(), project.ID)
	if err != nil {
		h.logger.Error("Failed to get challenges", "project_id", project.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, challenges)
}

type importChallenge struct {
	Path    string `json:"path"`
	Sha     string `json:"sha"`
	TreeSha string `json:"tree_sha"`
	Url     string `json:"url"`
	Content string `json:"content"`
}

type importResult struct {
	Received int   `json:"received"`
	Affected int64 `json:"affected"`
}

// importChallenges upserts a batch of challenges keyed by content. Content is
// normalized the same way crawled files are.
// PUT /v1/projects/{owner}/{name}/challenges
func (h *Handler) importChallenges(w http.ResponseWriter, r *http.Request) {
	project, ok := h.lookupProject(w, r)
	if !ok {
		return
	}

	var items []importChallenge
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&items); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: expected a JSON array of challenges")
		return
	}

	params := make([]database.UpsertChallengeByContentParams, 0, len(items))
	for i, it := range items {
		if it.Path == "" || strings.TrimSpace(it.Content) == "" {
			respondWithError(w, http.StatusBadRequest, "Challenge "+strconv.Itoa(i)+": path and content are required")
			return
		}
		content, loc := normalize.Normalize(it.Content)
		url := it.Url
		if url == "" {
			url = strings.TrimSuffix(project.HtmlUrl, "/") + "/blob/" + project.DefaultBranch + "/" + it.Path
		}
		params = append(params, database.UpsertChallengeByContentParams{
			ProjectID: project.ID,
			Path:      it.Path,
			Sha:       it.Sha,
			TreeSha:   it.TreeSha,
			Language:  project.Language,
			Url:       url,
			Content:   content,
			Loc:       int32(loc),
		})
	}

	affected, err := h.db.UpsertChallengesByContent(r.Context(), params)
	if err != nil {
		h.logger.Error("Failed to import challenges", "project_id", project.ID, "count", len(params), "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("Challenges imported", "project_id", project.ID, "received", len(params), "affected", affected)
	respondWithJSON(w, http.StatusOK, importResult{Received: len(params), Affected: affected})
}

func (h *Handler) lookupProject(w http.ResponseWriter, r *http.Request) (database.Project, bool) {
	fullName := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")

	project, err := h.db.GetProjectByFullName(r.Context(), fullName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "Project not found")
			return database.Project{}, false
		}
		h.logger.Error("Failed to get project", "project", fullName, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return database.Project{}, false
	}
	return project, true
}
