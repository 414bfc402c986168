// Package roles responde "esse sujeito tem um grant privilegiado?" usando um
// enforcer casbin. Ele alimenta o before-hook do Evaluator: papéis como admin
// concedem acesso ANTES das regras de ownership rodarem, sem que a lógica de
// posts precise saber que admins existem.
package roles

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/PauloHFS/gothpress/internal/policies"
)

//go:embed model.conf
var modelText string

//go:embed policy.csv
var defaultPolicy []byte

// Wildcard casa com qualquer recurso ou ação no matcher do modelo.
const Wildcard = "*"

// RoleHolder é implementado por atores que carregam um papel nomeado
// (db.User expõe o role_id por aqui).
type RoleHolder interface {
	RoleName() string
}

type Service struct {
	enforcer   *casbin.SyncedEnforcer
	policyPath string
	logger     *slog.Logger
}

// New monta o enforcer. Com policyPath vazio usa a policy embutida
// (somente leitura); com um caminho em disco, o arquivo pode ser
// hot-reloaded via Watch.
func New(policyPath string, logger *slog.Logger) (*Service, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rbac model: %w", err)
	}

	var adapter persist.Adapter
	if policyPath != "" {
		adapter = fileadapter.NewAdapter(policyPath)
	} else {
		adapter = &embeddedAdapter{csv: defaultPolicy}
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to build enforcer: %w", err)
	}

	return &Service{
		enforcer:   enforcer,
		policyPath: policyPath,
		logger:     logger,
	}, nil
}

// Can verifica se o sujeito (id de usuário ou nome de papel) tem grant
// para a ação sobre o tipo de recurso.
func (s *Service) Can(sub, obj, act string) (bool, error) {
	ok, err := s.enforcer.Enforce(sub, obj, act)
	if err != nil {
		return false, fmt.Errorf("failed to enforce policy: %w", err)
	}
	return ok, nil
}

// HasWildcard diz se algum dos sujeitos enxerga qualquer recurso com
// qualquer ação. A listagem usa isso para decidir entre query escopada
// e query global.
func (s *Service) HasWildcard(subs ...string) bool {
	for _, sub := range subs {
		if sub == "" {
			continue
		}
		ok, err := s.enforcer.Enforce(sub, Wildcard, Wildcard)
		if err != nil {
			s.logger.Error("failed to check wildcard grant", "error", err, "sub", sub)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// Grant adiciona um papel a um usuário em memória (e no arquivo, quando
// a policy vem de disco).
func (s *Service) Grant(userID, role string) error {
	if _, err := s.enforcer.AddRoleForUser(userID, role); err != nil {
		return fmt.Errorf("failed to grant role %q: %w", role, err)
	}
	return nil
}

// Revoke remove um papel de um usuário.
func (s *Service) Revoke(userID, role string) error {
	if _, err := s.enforcer.DeleteRoleForUser(userID, role); err != nil {
		return fmt.Errorf("failed to revoke role %q: %w", role, err)
	}
	return nil
}

// RolesFor lista os papéis atribuídos diretamente a um usuário.
func (s *Service) RolesFor(userID string) ([]string, error) {
	roles, err := s.enforcer.GetRolesForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// Reload relê a policy do adapter subjacente.
func (s *Service) Reload() error {
	if err := s.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("failed to reload policy: %w", err)
	}
	return nil
}

// BeforeHook adapta o enforcer ao contrato de before-hook do Evaluator:
// grant presente vira Allow, ausência vira Abstain. Esse hook nunca nega;
// negar é papel das regras (ou de outro hook).
func BeforeHook(s *Service) policies.BeforeHook {
	return func(actor policies.Actor, resourceType string, action policies.Action) policies.Verdict {
		if actor == nil {
			return policies.Abstain
		}
		subs := []string{fmt.Sprint(actor.ActorID())}
		if holder, ok := actor.(RoleHolder); ok {
			if role := holder.RoleName(); role != "" {
				subs = append(subs, role)
			}
		}
		for _, sub := range subs {
			ok, err := s.Can(sub, resourceType, string(action))
			if err != nil {
				s.logger.Error("before hook enforcement failed", "error", err, "sub", sub)
				return policies.Abstain
			}
			if ok {
				return policies.Allow
			}
		}
		return policies.Abstain
	}
}

// embeddedAdapter carrega a policy padrão compilada no binário. Escrita
// não é suportada; grants em runtime ficam só na memória do enforcer.
type embeddedAdapter struct {
	csv []byte
}

func (a *embeddedAdapter) LoadPolicy(m model.Model) error {
	scanner := bufio.NewScanner(bytes.NewReader(a.csv))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := persist.LoadPolicyLine(line, m); err != nil {
			return fmt.Errorf("failed to parse policy line %q: %w", line, err)
		}
	}
	return scanner.Err()
}

func (a *embeddedAdapter) SavePolicy(model.Model) error {
	return errors.New("embedded policy is read-only")
}

func (a *embeddedAdapter) AddPolicy(string, string, []string) error { return nil }

func (a *embeddedAdapter) RemovePolicy(string, string, []string) error { return nil }

func (a *embeddedAdapter) RemoveFilteredPolicy(string, string, int, ...string) error { return nil }
