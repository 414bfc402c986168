package policies

// ResourcePost é o nome sob o qual as regras de posts são registradas.
const ResourcePost = "post"

// ActionReview é uma ação custom fora do conjunto CRUD canônico. Existe para
// mostrar que o Evaluator aceita ações arbitrárias; segue o mesmo predicado
// de ownership das demais.
const ActionReview Action = "review"

// RegisterPostPolicy implementa a lógica ABAC de posts: listar é público,
// criar exige autenticação, e toda ação sobre uma instância exige ser o dono.
// O bypass de admin não mora aqui, entra pelo before-hook.
func RegisterPostPolicy(e *Evaluator) {
	e.Register(ResourcePost, ActionViewAny, Anyone)
	e.Register(ResourcePost, ActionView, Owns)
	e.Register(ResourcePost, ActionCreate, Authenticated)
	e.Register(ResourcePost, ActionUpdate, Owns)
	e.Register(ResourcePost, ActionDelete, Owns)
	e.Register(ResourcePost, ActionReview, Owns)
}
