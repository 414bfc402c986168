package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/PauloHFS/gothpress/internal/logging"
	"github.com/PauloHFS/gothpress/internal/policies"
)

// handleEvents abre um stream SSE. O parâmetro ?stream diz o que o cliente
// quer assinar, e cada forma passa pelo mesmo Evaluator das páginas antes
// do Subscribe:
//
//	stream=posts      feed da listagem (viewAny, anônimo pode)
//	stream=post:{id}  página de um post (view do post, 404 se não existe)
//	stream=user:{id}  notificações pessoais (view do próprio perfil)
func handleEvents(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	stream := r.URL.Query().Get("stream")
	logging.AddToEvent(r.Context(),
		slog.String("operation", "sse_subscribe"),
		slog.String("stream", stream),
	)

	resourceType, resourceID, ok := resolveStream(deps, w, r, stream)
	if !ok {
		return nil
	}

	client, err := deps.Broker.Subscribe(resourceType, resourceID)
	if err != nil {
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return nil
	}
	defer deps.Broker.Unsubscribe(client, resourceType, resourceID)

	deps.Broker.Stream(w, r, client)
	return nil
}

// resolveStream valida e autoriza o stream pedido. Quando retorna ok=false
// a resposta já foi escrita.
func resolveStream(deps HandlerDeps, w http.ResponseWriter, r *http.Request, stream string) (string, string, bool) {
	if stream == "posts" {
		if !deps.authorize(r, policies.ResourcePost, policies.ActionViewAny, nil) {
			deny(w, r, policies.ActionViewAny)
			return "", "", false
		}
		return "posts", "all", true
	}

	kind, rawID, found := strings.Cut(stream, ":")
	if !found {
		http.Error(w, "Unknown stream", http.StatusBadRequest)
		return "", "", false
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		http.Error(w, "Unknown stream", http.StatusBadRequest)
		return "", "", false
	}

	switch kind {
	case "post":
		post, err := deps.reads().GetPostByID(r.Context(), id)
		if err != nil {
			notFound(w, r)
			return "", "", false
		}
		if !deps.authorize(r, policies.ResourcePost, policies.ActionView, post) {
			deny(w, r, policies.ActionView)
			return "", "", false
		}
		return "post", rawID, true

	case "user":
		target, err := deps.reads().GetUserByID(r.Context(), id)
		if err != nil {
			notFound(w, r)
			return "", "", false
		}
		if !deps.authorize(r, policies.ResourceUser, policies.ActionView, target) {
			deny(w, r, policies.ActionView)
			return "", "", false
		}
		return "user", rawID, true
	}

	http.Error(w, "Unknown stream", http.StatusBadRequest)
	return "", "", false
}
