package roles

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PauloHFS/gothpress/internal/policies"
)

type roleActor struct {
	id   any
	role string
}

func (a roleActor) ActorID() any     { return a.id }
func (a roleActor) RoleName() string { return a.role }

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	s, err := New("", logger)
	if err != nil {
		t.Fatalf("falha ao criar service: %v", err)
	}
	return s
}

func TestCanComPolicyEmbutida(t *testing.T) {
	s := newTestService(t)

	tests := []struct {
		name     string
		sub      string
		obj      string
		act      string
		expected bool
	}{
		{"Admin pode deletar posts", "admin", "post", "delete", true},
		{"Admin pode qualquer ação em qualquer recurso", "admin", "user", "update", true},
		{"Moderator pode revisar posts", "moderator", "post", "review", true},
		{"Moderator não pode deletar posts", "moderator", "post", "delete", false},
		{"Papel desconhecido não tem grants", "intern", "post", "view", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := s.Can(tt.sub, tt.obj, tt.act)
			if err != nil {
				t.Fatalf("erro inesperado: %v", err)
			}
			if ok != tt.expected {
				t.Errorf("falha em %s: esperado %v, obtido %v", tt.name, tt.expected, ok)
			}
		})
	}
}

func TestHasWildcard(t *testing.T) {
	s := newTestService(t)

	if !s.HasWildcard("admin") {
		t.Error("admin deveria ter grant wildcard")
	}
	if s.HasWildcard("moderator") {
		t.Error("moderator não deveria ter grant wildcard")
	}
	if s.HasWildcard("", "moderator") {
		t.Error("sujeito vazio não pode contar como wildcard")
	}
	if !s.HasWildcard("42", "admin") {
		t.Error("wildcard deveria valer se qualquer sujeito da lista tiver o grant")
	}
}

func TestGrantERevoke(t *testing.T) {
	s := newTestService(t)

	ok, _ := s.Can("7", "post", "delete")
	if ok {
		t.Fatal("usuário sem papel não deveria ter grant")
	}

	if err := s.Grant("7", "admin"); err != nil {
		t.Fatalf("falha ao conceder papel: %v", err)
	}
	ok, _ = s.Can("7", "post", "delete")
	if !ok {
		t.Fatal("com papel de admin o grant deveria valer")
	}

	roles, err := s.RolesFor("7")
	if err != nil {
		t.Fatalf("falha ao listar papéis: %v", err)
	}
	if len(roles) != 1 || roles[0] != "admin" {
		t.Fatalf("esperado [admin], obtido %v", roles)
	}

	if err := s.Revoke("7", "admin"); err != nil {
		t.Fatalf("falha ao revogar papel: %v", err)
	}
	ok, _ = s.Can("7", "post", "delete")
	if ok {
		t.Fatal("revogado o papel, o grant não deveria mais valer")
	}
}

func TestBeforeHook(t *testing.T) {
	s := newTestService(t)
	hook := BeforeHook(s)

	tests := []struct {
		name     string
		actor    policies.Actor
		action   policies.Action
		expected policies.Verdict
	}{
		{"Anônimo abstém", nil, policies.ActionDelete, policies.Abstain},
		{"Usuário comum abstém", roleActor{id: 3, role: "user"}, policies.ActionDelete, policies.Abstain},
		{"Admin concede", roleActor{id: 1, role: "admin"}, policies.ActionDelete, policies.Allow},
		{"Moderator concede review", roleActor{id: 2, role: "moderator"}, policies.ActionReview, policies.Allow},
		{"Moderator abstém fora de review", roleActor{id: 2, role: "moderator"}, policies.ActionUpdate, policies.Abstain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hook(tt.actor, policies.ResourcePost, tt.action)
			if got != tt.expected {
				t.Errorf("falha em %s: esperado %s, obtido %s", tt.name, tt.expected, got)
			}
		})
	}
}

func TestBeforeHookIntegraComEvaluator(t *testing.T) {
	s := newTestService(t)

	e := policies.NewEvaluator()
	policies.RegisterPostPolicy(e)
	e.Before(BeforeHook(s))

	admin := roleActor{id: 1, role: "admin"}
	intruder := roleActor{id: 3, role: "user"}
	post := postStub{ownerID: 2}

	if !e.Allows(admin, policies.ResourcePost, policies.ActionDelete, post) {
		t.Error("admin deveria deletar post de qualquer autor")
	}
	if e.Allows(intruder, policies.ResourcePost, policies.ActionDelete, post) {
		t.Error("usuário comum não deveria deletar post alheio")
	}

	// Conceder e revogar em runtime reproduz exatamente as decisões originais.
	if err := s.Grant("3", "admin"); err != nil {
		t.Fatalf("falha ao conceder: %v", err)
	}
	if !e.Allows(intruder, policies.ResourcePost, policies.ActionDelete, post) {
		t.Error("com grant em runtime a deleção deveria passar")
	}
	if err := s.Revoke("3", "admin"); err != nil {
		t.Fatalf("falha ao revogar: %v", err)
	}
	if e.Allows(intruder, policies.ResourcePost, policies.ActionDelete, post) {
		t.Error("revogado o grant, a decisão deveria voltar a negar")
	}
}

type postStub struct{ ownerID any }

func (p postStub) OwnerID() any { return p.ownerID }

func TestReloadDePolicyEmDisco(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.csv")
	if err := os.WriteFile(path, []byte("p, admin, *, *\n"), 0o644); err != nil {
		t.Fatalf("falha ao escrever policy: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	s, err := New(path, logger)
	if err != nil {
		t.Fatalf("falha ao criar service: %v", err)
	}

	ok, _ := s.Can("editor", "post", "update")
	if ok {
		t.Fatal("grant de editor ainda não existe")
	}

	content := "p, admin, *, *\np, editor, post, update\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("falha ao reescrever policy: %v", err)
	}
	if err := s.Reload(); err != nil {
		t.Fatalf("falha ao recarregar: %v", err)
	}

	ok, _ = s.Can("editor", "post", "update")
	if !ok {
		t.Fatal("após reload o grant de editor deveria valer")
	}
}

func TestWatchRecarregaAoSalvar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.csv")
	if err := os.WriteFile(path, []byte("p, admin, *, *\n"), 0o644); err != nil {
		t.Fatalf("falha ao escrever policy: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	s, err := New(path, logger)
	if err != nil {
		t.Fatalf("falha ao criar service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Watch(ctx) }()

	// Dá tempo do watcher registrar o diretório antes de salvar.
	time.Sleep(100 * time.Millisecond)

	content := "p, admin, *, *\np, editor, post, update\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("falha ao reescrever policy: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if ok, _ := s.Can("editor", "post", "update"); ok {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("watcher não recarregou a policy dentro do prazo")
}
