// Package policies centraliza todas as regras de autorização da aplicação.
// Handlers e views nunca duplicam checagens de ownership: eles perguntam ao
// Evaluator e tratam apenas o resultado.
package policies

// Action nomeia uma operação sujeita a autorização.
type Action string

const (
	ActionViewAny Action = "viewAny"
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
)

// Verdict é o resultado de um before-hook: Allow e Deny encerram a
// avaliação; Abstain deixa as regras por ação decidirem.
type Verdict int

const (
	Abstain Verdict = iota
	Allow
	Deny
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "abstain"
	}
}

// Actor é a identidade tentando uma ação. Um Actor nil representa um
// chamador anônimo; é entrada válida, nunca um erro.
type Actor interface {
	ActorID() any
}

// Resource é a entidade alvo de uma ação, dona de uma referência de owner.
// Ações de classe (viewAny, create) são avaliadas com Resource nil.
type Resource interface {
	OwnerID() any
}

// Rule decide uma única ação. Deve ser pura: sem I/O, sem estado.
type Rule func(actor Actor, resource Resource) bool

// BeforeHook roda antes das regras por ação e pode conceder bypass global
// (ex.: admin). Retornar Abstain mantém a avaliação normal.
type BeforeHook func(actor Actor, resourceType string, action Action) Verdict

// Evaluator mapeia (tipo de recurso, ação) para regras. O registro acontece
// na subida do processo; depois disso o Evaluator é somente leitura e pode
// ser compartilhado entre goroutines sem sincronização.
type Evaluator struct {
	rules  map[string]map[Action]Rule
	before []BeforeHook
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		rules: make(map[string]map[Action]Rule),
	}
}

// Register associa uma regra a (resourceType, action). A última regra
// registrada para o par vence.
func (e *Evaluator) Register(resourceType string, action Action, rule Rule) {
	if e.rules[resourceType] == nil {
		e.rules[resourceType] = make(map[Action]Rule)
	}
	e.rules[resourceType][action] = rule
}

// Before adiciona um hook executado antes das regras por ação, na ordem de
// registro.
func (e *Evaluator) Before(hook BeforeHook) {
	e.before = append(e.before, hook)
}

// Allows decide se o ator pode executar a ação sobre o recurso. Ações sem
// regra registrada são negadas (deny por padrão). Para ações de classe,
// passe resource nil.
func (e *Evaluator) Allows(actor Actor, resourceType string, action Action, resource Resource) bool {
	for _, hook := range e.before {
		switch hook(actor, resourceType, action) {
		case Allow:
			return true
		case Deny:
			return false
		}
	}

	actions, ok := e.rules[resourceType]
	if !ok {
		return false
	}
	rule, ok := actions[action]
	if !ok {
		return false
	}
	return rule(actor, resource)
}

// --- Predicados canônicos ---

// Anyone permite qualquer chamador, autenticado ou não.
func Anyone(Actor, Resource) bool {
	return true
}

// Authenticated exige apenas um ator presente.
func Authenticated(actor Actor, _ Resource) bool {
	return actor != nil
}

// Owns exige um ator presente cujo id seja o owner do recurso.
func Owns(actor Actor, resource Resource) bool {
	if actor == nil || resource == nil {
		return false
	}
	return SameIdentity(actor.ActorID(), resource.OwnerID())
}
