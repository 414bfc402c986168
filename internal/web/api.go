package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/i18n"
	"github.com/PauloHFS/gothpress/internal/logging"
	"github.com/PauloHFS/gothpress/internal/middleware"
	"github.com/PauloHFS/gothpress/internal/policies"
	"github.com/PauloHFS/gothpress/internal/validator"
	"github.com/PauloHFS/gothpress/internal/view"
)

// postCan espelha, por item, as mesmas decisões do Evaluator que escondem
// botões no HTML. Clientes de API montam a UI deles com isso em vez de
// reimplementar regras de ownership.
type postCan struct {
	View   bool `json:"view"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
	Review bool `json:"review"`
}

type apiPost struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content,omitempty"`
	Summary          string    `json:"summary,omitempty"`
	CoverURL         string    `json:"cover_url,omitempty"`
	ModerationStatus string    `json:"moderation_status,omitempty"`
	AuthorID         int64     `json:"author_id"`
	AuthorName       string    `json:"author_name,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
	Can              postCan   `json:"can"`
}

type apiPostList struct {
	Items      []apiPost `json:"items"`
	TotalItems int       `json:"total_items"`
	Page       int       `json:"page"`
	PerPage    int       `json:"per_page"`
	TotalPages int       `json:"total_pages"`
}

type apiPostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type apiError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Get().Error("failed to encode json response", slog.Any("error", err))
	}
}

func apiDeny(w http.ResponseWriter, r *http.Request, action policies.Action) {
	t := i18n.Get(r.Context())
	writeJSON(w, http.StatusForbidden, apiError{Error: t.DenialFor(action)})
}

func apiNotFound(w http.ResponseWriter, r *http.Request) {
	t := i18n.Get(r.Context())
	writeJSON(w, http.StatusNotFound, apiError{Error: t.NotFound})
}

// loadPostJSON é o loadPost da API: mesmo 404-antes-de-política, erro em
// JSON.
func loadPostJSON(deps HandlerDeps, w http.ResponseWriter, r *http.Request) (db.Post, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apiNotFound(w, r)
		return db.Post{}, false
	}

	post, err := deps.reads().GetPostByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		apiNotFound(w, r)
		return db.Post{}, false
	}
	if err != nil {
		logging.Get().Error("failed to load post", slog.Int64("post_id", id), slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
		return db.Post{}, false
	}
	return post, true
}

func (deps HandlerDeps) apiPostFrom(r *http.Request, post db.Post, authorName string) apiPost {
	out := apiPost{
		ID:               post.ID,
		Title:            post.Title,
		Content:          post.Content,
		AuthorID:         post.UserID,
		AuthorName:       authorName,
		ModerationStatus: post.ModerationStatus,
		Can: postCan{
			View:   deps.authorize(r, policies.ResourcePost, policies.ActionView, post),
			Update: deps.authorize(r, policies.ResourcePost, policies.ActionUpdate, post),
			Delete: deps.authorize(r, policies.ResourcePost, policies.ActionDelete, post),
			Review: deps.authorize(r, policies.ResourcePost, policies.ActionReview, post),
		},
	}
	if post.Summary.Valid {
		out.Summary = post.Summary.String
	}
	if post.CoverPath.Valid {
		out.CoverURL = post.CoverPath.String
	}
	if post.CreatedAt.Valid {
		out.CreatedAt = post.CreatedAt.Time
	}
	if post.UpdatedAt.Valid {
		out.UpdatedAt = post.UpdatedAt.Time
	}
	return out
}

// handleAPIListPosts lista posts
// @Summary Listar posts
// @Description Lista posts paginados. Cada item carrega o objeto `can` com as ações permitidas ao chamador.
// @Tags posts
// @Produce json
// @Param page query int false "Página"
// @Param search query string false "Busca em título e conteúdo"
// @Success 200 {object} apiPostList
// @Failure 403 {object} apiError
// @Router /api/v1/posts [get]
func handleAPIListPosts(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "api_post_list"))

	if !deps.authorize(r, policies.ResourcePost, policies.ActionViewAny, nil) {
		apiDeny(w, r, policies.ActionViewAny)
		return nil
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	search := r.URL.Query().Get("search")
	paging := db.PagingParams{Page: page, PerPage: postsPerPage}

	list := apiPostList{
		Items:   []apiPost{},
		Page:    paging.Page,
		PerPage: paging.PerPage,
	}
	if list.Page < 1 {
		list.Page = 1
	}

	appendRow := func(id int64, userID int64, title, authorName string, summary, cover sql.NullString, status string, created, updated sql.NullTime) {
		post := db.Post{
			ID: id, UserID: userID, Title: title,
			Summary: summary, CoverPath: cover, ModerationStatus: status,
			CreatedAt: created, UpdatedAt: updated,
		}
		item := deps.apiPostFrom(r, post, authorName)
		// Listagem serve metadados; o corpo sai só no GET do post.
		item.Content = ""
		list.Items = append(list.Items, item)
	}

	if search != "" {
		pattern := sql.NullString{String: "%" + search + "%", Valid: true}
		rows, err := deps.reads().SearchPostsPaginated(r.Context(), db.SearchPostsPaginatedParams{
			Column1: pattern,
			Column2: pattern,
			Limit:   int64(paging.Limit()),
			Offset:  int64(paging.Offset()),
		})
		if err != nil {
			return fmt.Errorf("failed to search posts: %w", err)
		}
		for _, row := range rows {
			appendRow(row.ID, row.UserID, row.Title, row.AuthorName, row.Summary, row.CoverPath, row.ModerationStatus, row.CreatedAt, row.UpdatedAt)
		}
	} else {
		rows, err := deps.reads().ListPostsPaginated(r.Context(), db.ListPostsPaginatedParams{
			Limit:  int64(paging.Limit()),
			Offset: int64(paging.Offset()),
		})
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}
		for _, row := range rows {
			appendRow(row.ID, row.UserID, row.Title, row.AuthorName, row.Summary, row.CoverPath, row.ModerationStatus, row.CreatedAt, row.UpdatedAt)
		}
	}

	total, err := deps.reads().CountPosts(r.Context())
	if err != nil {
		return fmt.Errorf("failed to count posts: %w", err)
	}
	list.TotalItems = int(total)
	list.TotalPages = view.NewPagination(list.Page, list.TotalItems, list.PerPage).TotalPages()

	writeJSON(w, http.StatusOK, list)
	return nil
}

// handleAPIGetPost busca um post
// @Summary Buscar post
// @Tags posts
// @Produce json
// @Param id path int true "ID do post"
// @Success 200 {object} apiPost
// @Failure 403 {object} apiError
// @Failure 404 {object} apiError
// @Router /api/v1/posts/{id} [get]
func handleAPIGetPost(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "api_post_get"))

	post, ok := loadPostJSON(deps, w, r)
	if !ok {
		return nil
	}

	if !deps.authorize(r, policies.ResourcePost, policies.ActionView, post) {
		apiDeny(w, r, policies.ActionView)
		return nil
	}

	author, err := deps.reads().GetUserByID(r.Context(), post.UserID)
	if err != nil {
		return fmt.Errorf("failed to load author: %w", err)
	}

	writeJSON(w, http.StatusOK, deps.apiPostFrom(r, post, author.Name))
	return nil
}

// handleAPICreatePost cria um post
// @Summary Criar post
// @Description Cria um post para o usuário autenticado. Autorização roda antes da validação.
// @Tags posts
// @Accept json
// @Produce json
// @Param post body apiPostInput true "Dados do post"
// @Success 201 {object} apiPost
// @Failure 400 {object} apiError
// @Failure 403 {object} apiError
// @Failure 422 {object} apiError
// @Router /api/v1/posts [post]
func handleAPICreatePost(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "api_post_create"))

	if !deps.authorize(r, policies.ResourcePost, policies.ActionCreate, nil) {
		apiDeny(w, r, policies.ActionCreate)
		return nil
	}

	var input apiPostInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid json"})
		return nil
	}

	validation := validator.ValidatePost(input.Title, input.Content)
	if !validation.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, apiError{
			Error:  "validation failed",
			Fields: validationErrors(validation),
		})
		return nil
	}

	user, _ := middleware.GetUser(r.Context())
	post, err := deps.Queries.CreatePost(r.Context(), db.CreatePostParams{
		UserID:  user.ID,
		Title:   input.Title,
		Content: deps.Sanitizer.Sanitize(input.Content),
	})
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	logging.AddToEvent(r.Context(),
		slog.String("outcome", "success"),
		slog.Int64("post_id", post.ID),
	)

	deps.enqueueSummarize(r, post)
	deps.notifyPostCreated(r, post, user.Name)

	writeJSON(w, http.StatusCreated, deps.apiPostFrom(r, post, user.Name))
	return nil
}

// handleAPIUpdatePost atualiza um post
// @Summary Atualizar post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "ID do post"
// @Param post body apiPostInput true "Dados do post"
// @Success 200 {object} apiPost
// @Failure 400 {object} apiError
// @Failure 403 {object} apiError
// @Failure 404 {object} apiError
// @Failure 422 {object} apiError
// @Router /api/v1/posts/{id} [put]
func handleAPIUpdatePost(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "api_post_update"))

	post, ok := loadPostJSON(deps, w, r)
	if !ok {
		return nil
	}

	if !deps.authorize(r, policies.ResourcePost, policies.ActionUpdate, post) {
		apiDeny(w, r, policies.ActionUpdate)
		return nil
	}

	var input apiPostInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid json"})
		return nil
	}

	validation := validator.ValidatePost(input.Title, input.Content)
	if !validation.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, apiError{
			Error:  "validation failed",
			Fields: validationErrors(validation),
		})
		return nil
	}

	if err := deps.Queries.UpdatePost(r.Context(), db.UpdatePostParams{
		Title:   input.Title,
		Content: deps.Sanitizer.Sanitize(input.Content),
		ID:      post.ID,
	}); err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	updated, err := deps.Queries.GetPostByID(r.Context(), post.ID)
	if err != nil {
		return fmt.Errorf("failed to reload post: %w", err)
	}

	author, err := deps.reads().GetUserByID(r.Context(), updated.UserID)
	if err != nil {
		return fmt.Errorf("failed to load author: %w", err)
	}

	logging.AddToEvent(r.Context(),
		slog.String("outcome", "success"),
		slog.Int64("post_id", post.ID),
	)

	writeJSON(w, http.StatusOK, deps.apiPostFrom(r, updated, author.Name))
	return nil
}

// handleAPIDeletePost exclui um post
// @Summary Excluir post
// @Tags posts
// @Produce json
// @Param id path int true "ID do post"
// @Success 204 {string} string "No Content"
// @Failure 403 {object} apiError
// @Failure 404 {object} apiError
// @Router /api/v1/posts/{id} [delete]
func handleAPIDeletePost(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "api_post_delete"))

	post, ok := loadPostJSON(deps, w, r)
	if !ok {
		return nil
	}

	if !deps.authorize(r, policies.ResourcePost, policies.ActionDelete, post) {
		apiDeny(w, r, policies.ActionDelete)
		return nil
	}

	if err := deps.Queries.DeletePost(r.Context(), post.ID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	logging.AddToEvent(r.Context(),
		slog.String("outcome", "success"),
		slog.Int64("post_id", post.ID),
	)

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// handleAPIReviewPost envia um post para revisão
// @Summary Revisar post
// @Description Marca o post como pendente de moderação e enfileira o job de revisão.
// @Tags posts
// @Produce json
// @Param id path int true "ID do post"
// @Success 202 {object} apiPost
// @Failure 403 {object} apiError
// @Failure 404 {object} apiError
// @Router /api/v1/posts/{id}/review [post]
func handleAPIReviewPost(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "api_post_review"))

	post, ok := loadPostJSON(deps, w, r)
	if !ok {
		return nil
	}

	if !deps.authorize(r, policies.ResourcePost, policies.ActionReview, post) {
		apiDeny(w, r, policies.ActionReview)
		return nil
	}

	tx, err := deps.DB.BeginTx(r.Context(), nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := deps.Queries.WithTx(tx)

	if err := qtx.SetPostModeration(r.Context(), db.SetPostModerationParams{
		ModerationStatus: "pending",
		ID:               post.ID,
	}); err != nil {
		return fmt.Errorf("failed to mark post pending: %w", err)
	}

	payload, _ := json.Marshal(map[string]int64{"post_id": post.ID})
	if _, err := qtx.CreateJob(r.Context(), db.CreateJobParams{
		UserID:  sql.NullInt64{Int64: post.UserID, Valid: true},
		Type:    db.JobModeratePost,
		Payload: payload,
	}); err != nil {
		return fmt.Errorf("failed to enqueue moderation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review: %w", err)
	}

	logging.AddToEvent(r.Context(),
		slog.String("outcome", "success"),
		slog.Int64("post_id", post.ID),
	)

	post.ModerationStatus = "pending"
	author, err := deps.reads().GetUserByID(r.Context(), post.UserID)
	if err != nil {
		return fmt.Errorf("failed to load author: %w", err)
	}

	writeJSON(w, http.StatusAccepted, deps.apiPostFrom(r, post, author.Name))
	return nil
}
