package web

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/i18n"
	"github.com/PauloHFS/gothpress/internal/logging"
	"github.com/PauloHFS/gothpress/internal/middleware"
	"github.com/PauloHFS/gothpress/internal/policies"
	"github.com/PauloHFS/gothpress/internal/routes"
	"github.com/PauloHFS/gothpress/internal/upload"
	"github.com/PauloHFS/gothpress/internal/validator"
	"github.com/PauloHFS/gothpress/internal/view"
	"github.com/PauloHFS/gothpress/internal/view/pages"
)

const postsPerPage = 10

// postCard resolve as permissões de um item da listagem com as mesmas
// regras dos handlers de mutação. Botão escondido e ação negada saem da
// mesma fonte.
func postCard(deps HandlerDeps, r *http.Request, id int64, title, author string, summary sql.NullString, res policies.Resource) pages.PostCardProps {
	props := pages.PostCardProps{
		ID:     id,
		Title:  title,
		Author: author,
	}
	if summary.Valid {
		props.Summary = summary.String
	}
	props.CanEdit = deps.authorize(r, policies.ResourcePost, policies.ActionUpdate, res)
	props.CanDelete = deps.authorize(r, policies.ResourcePost, policies.ActionDelete, res)
	return props
}

func handlePostList(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "post_list"))

	if !deps.authorize(r, policies.ResourcePost, policies.ActionViewAny, nil) {
		deny(w, r, policies.ActionViewAny)
		return nil
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	search := r.URL.Query().Get("search")
	paging := db.PagingParams{Page: page, PerPage: postsPerPage}

	var props pages.PostListProps
	props.Search = search
	props.Message = r.URL.Query().Get("message")
	props.CanCreate = deps.authorize(r, policies.ResourcePost, policies.ActionCreate, nil)

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
			props.Posts = append(props.Posts, postCard(deps, r, row.ID, row.Title, row.AuthorName, row.Summary, row))
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
			props.Posts = append(props.Posts, postCard(deps, r, row.ID, row.Title, row.AuthorName, row.Summary, row))
		}
	}

	total, err := deps.reads().CountPosts(r.Context())
	if err != nil {
		return fmt.Errorf("failed to count posts: %w", err)
	}
	props.Pagination = view.NewPagination(paging.Page, int(total), paging.PerPage)

	templ.Handler(pages.PostList(props)).ServeHTTP(w, r)
	return nil
}

func handlePostDetail(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "post_detail"))

	post, ok := loadPost(deps, w, r)
	if !ok {
		return nil
	}

	if !deps.authorize(r, policies.ResourcePost, policies.ActionView, post) {
		deny(w, r, policies.ActionView)
		return nil
	}

	author, err := deps.reads().GetUserByID(r.Context(), post.UserID)
	if err != nil {
		return fmt.Errorf("failed to load author: %w", err)
	}

	props := pages.PostDetailProps{
		Post:      post,
		Author:    author.Name,
		Message:   r.URL.Query().Get("message"),
		CanEdit:   deps.authorize(r, policies.ResourcePost, policies.ActionUpdate, post),
		CanDelete: deps.authorize(r, policies.ResourcePost, policies.ActionDelete, post),
		CanReview: deps.authorize(r, policies.ResourcePost, policies.ActionReview, post),
	}

	templ.Handler(pages.PostDetail(props)).ServeHTTP(w, r)
	return nil
}

func handleNewPostPage(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	if !deps.authorize(r, policies.ResourcePost, policies.ActionCreate, nil) {
		deny(w, r, policies.ActionCreate)
		return nil
	}

	templ.Handler(pages.PostForm(pages.PostFormProps{})).ServeHTTP(w, r)
	return nil
}

func handleCreatePost(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "post_create"))

	// Autorização antes da validação: quem não pode criar não fica
	// sabendo o que há de errado com os dados.
	if !deps.authorize(r, policies.ResourcePost, policies.ActionCreate, nil) {
		deny(w, r, policies.ActionCreate)
		return nil
	}

	user, _ := middleware.GetUser(r.Context())
	title := r.FormValue("title")
	content := r.FormValue("content")

	validation := validator.ValidatePost(title, content)
	if !validation.Valid {
		logging.AddToEvent(r.Context(),
			slog.String("outcome", "error"),
			slog.String("error_reason", "validation_failed"),
		)
		templ.Handler(pages.PostForm(pages.PostFormProps{
			Title:   title,
			Content: content,
			Errors:  validationErrors(validation),
		})).ServeHTTP(w, r)
		return nil
	}

	post, err := deps.Queries.CreatePost(r.Context(), db.CreatePostParams{
		UserID:  user.ID,
		Title:   title,
		Content: deps.Sanitizer.Sanitize(content),
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

	redirectWithMessage(w, r, routes.PostPath(post.ID), "Post criado")
	return nil
}

func handleEditPostPage(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	post, ok := loadPost(deps, w, r)
	if !ok {
		return nil
	}

	if !deps.authorize(r, policies.ResourcePost, policies.ActionUpdate, post) {
		deny(w, r, policies.ActionUpdate)
		return nil
	}

	templ.Handler(pages.PostForm(pages.PostFormProps{
		ID:      post.ID,
		Title:   post.Title,
		Content: post.Content,
	})).ServeHTTP(w, r)
	return nil
}

func handleUpdatePost(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "post_update"))

	post, ok := loadPost(deps, w, r)
	if !ok {
		return nil
	}

	if !deps.authorize(r, policies.ResourcePost, policies.ActionUpdate, post) {
		deny(w, r, policies.ActionUpdate)
		return nil
	}

	title := r.FormValue("title")
	content := r.FormValue("content")

	validation := validator.ValidatePost(title, content)
	if !validation.Valid {
		logging.AddToEvent(r.Context(),
			slog.String("outcome", "error"),
			slog.String("error_reason", "validation_failed"),
		)
		templ.Handler(pages.PostForm(pages.PostFormProps{
			ID:      post.ID,
			Title:   title,
			Content: content,
			Errors:  validationErrors(validation),
		})).ServeHTTP(w, r)
		return nil
	}

	// UpdatePost não toca user_id: ownership é imutável.
	if err := deps.Queries.UpdatePost(r.Context(), db.UpdatePostParams{
		Title:   title,
		Content: deps.Sanitizer.Sanitize(content),
		ID:      post.ID,
	}); err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	logging.AddToEvent(r.Context(),
		slog.String("outcome", "success"),
		slog.Int64("post_id", post.ID),
	)

	redirectWithMessage(w, r, routes.PostPath(post.ID), "Post atualizado")
	return nil
}

func handleDeletePost(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "post_delete"))

	post, ok := loadPost(deps, w, r)
	if !ok {
		return nil
	}

	if !deps.authorize(r, policies.ResourcePost, policies.ActionDelete, post) {
		deny(w, r, policies.ActionDelete)
		return nil
	}

	if err := deps.Queries.DeletePost(r.Context(), post.ID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if post.CoverPath.Valid {
		_ = upload.Remove(deps.Config.UploadDir, post.CoverPath.String)
	}

	logging.AddToEvent(r.Context(),
		slog.String("outcome", "success"),
		slog.Int64("post_id", post.ID),
	)

	redirectWithMessage(w, r, routes.Posts, "Post excluído")
	return nil
}

// handleReviewPost envia o post para moderação: status pending e job
// assíncrono. O resultado volta por SSE e pelo webhook de moderação.
func handleReviewPost(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "post_review"))

	post, ok := loadPost(deps, w, r)
	if !ok {
		return nil
	}

	if !deps.authorize(r, policies.ResourcePost, policies.ActionReview, post) {
		deny(w, r, policies.ActionReview)
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

	badge := pages.ModerationStatusBadge(i18n.Get(r.Context()), "pending")
	deps.Broker.NotifyPost(post.ID, "moderation_update", badge)

	redirectWithMessage(w, r, routes.PostPath(post.ID), "Post enviado para revisão")
	return nil
}

func handleCoverUpload(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "post_cover"))

	post, ok := loadPost(deps, w, r)
	if !ok {
		return nil
	}

	if !deps.authorize(r, policies.ResourcePost, policies.ActionUpdate, post) {
		deny(w, r, policies.ActionUpdate)
		return nil
	}

	result, err := upload.SaveFile(r, "cover", deps.Config.UploadDir, upload.CoverConfig)
	if err != nil {
		if upload.IsUploadError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return nil
		}
		return fmt.Errorf("failed to save cover: %w", err)
	}

	if post.CoverPath.Valid {
		_ = upload.Remove(deps.Config.UploadDir, post.CoverPath.String)
	}

	if err := deps.Queries.UpdatePostCover(r.Context(), db.UpdatePostCoverParams{
		CoverPath: sql.NullString{String: result.URL, Valid: true},
		ID:        post.ID,
	}); err != nil {
		return fmt.Errorf("failed to update cover: %w", err)
	}

	logging.AddToEvent(r.Context(),
		slog.String("outcome", "success"),
		slog.Int64("post_id", post.ID),
	)

	redirectWithMessage(w, r, routes.PostPath(post.ID), "Capa atualizada")
	return nil
}

// handleDashboard é a área de gestão: os posts do usuário logado, e os
// totais do site para quem tem grant de wildcard.
func handleDashboard(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		http.Redirect(w, r, routes.Login, http.StatusSeeOther)
		return nil
	}

	logging.AddToEvent(r.Context(),
		slog.String("operation", "dashboard"),
		slog.Int64("user_id", user.ID),
	)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	paging := db.PagingParams{Page: page, PerPage: postsPerPage}

	props := pages.DashboardProps{
		User:    user,
		Message: r.URL.Query().Get("message"),
	}

	wildcard := deps.Roles.HasWildcard(actorSubjects(r)...)

	var total int64
	if wildcard {
		rows, err := deps.reads().ListPostsPaginated(r.Context(), db.ListPostsPaginatedParams{
			Limit:  int64(paging.Limit()),
			Offset: int64(paging.Offset()),
		})
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}
		for _, row := range rows {
			props.Posts = append(props.Posts, postCard(deps, r, row.ID, row.Title, row.AuthorName, row.Summary, row))
		}
		if total, err = deps.reads().CountPosts(r.Context()); err != nil {
			return fmt.Errorf("failed to count posts: %w", err)
		}

		totalUsers, err := deps.reads().CountUsers(r.Context())
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		props.Stats = &pages.DashboardStats{TotalPosts: total, TotalUsers: totalUsers}
	} else {
		rows, err := deps.reads().ListPostsByAuthorPaginated(r.Context(), db.ListPostsByAuthorPaginatedParams{
			UserID: user.ID,
			Limit:  int64(paging.Limit()),
			Offset: int64(paging.Offset()),
		})
		if err != nil {
			return fmt.Errorf("failed to list own posts: %w", err)
		}
		for _, row := range rows {
			props.Posts = append(props.Posts, postCard(deps, r, row.ID, row.Title, row.AuthorName, row.Summary, row))
		}
		if total, err = deps.reads().CountPostsByAuthor(r.Context(), user.ID); err != nil {
			return fmt.Errorf("failed to count own posts: %w", err)
		}
	}

	props.Pagination = view.NewPagination(paging.Page, int(total), paging.PerPage)

	templ.Handler(pages.Dashboard(props)).ServeHTTP(w, r)
	return nil
}

// enqueueSummarize agenda o resumo por LLM do post recém-criado, quando
// o backend está configurado. Falha aqui não falha o request.
func (deps HandlerDeps) enqueueSummarize(r *http.Request, post db.Post) {
	if !deps.Config.LLMEnabled() {
		return
	}

	payload, _ := json.Marshal(map[string]int64{"post_id": post.ID})
	if _, err := deps.Queries.CreateJob(r.Context(), db.CreateJobParams{
		UserID:  sql.NullInt64{Int64: post.UserID, Valid: true},
		Type:    db.JobSummarizePost,
		Payload: payload,
	}); err != nil {
		logging.Get().Warn("failed to enqueue summarize job",
			slog.Int64("post_id", post.ID), slog.Any("error", err))
	}
}

// notifyPostCreated manda o card do post novo para quem está na listagem.
// O fragmento vai sem botões de ação: cada cliente é anônimo do ponto de
// vista do broadcast, e um reload mostra os botões certos.
func (deps HandlerDeps) notifyPostCreated(r *http.Request, post db.Post, authorName string) {
	card := pages.PostCard(pages.PostCardProps{
		ID:     post.ID,
		Title:  post.Title,
		Author: authorName,
	})

	var b strings.Builder
	if err := card.Render(r.Context(), &b); err != nil {
		logging.Get().Warn("failed to render post card for sse", slog.Any("error", err))
		return
	}
	deps.Broker.NotifyPostList("post_created", b.String())
}

func validationErrors(result validator.ValidationResult) map[string]string {
	errs := make(map[string]string, len(result.Errors))
	for _, e := range result.Errors {
		errs[e.Field] = e.Message
	}
	return errs
}
