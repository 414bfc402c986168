package policies

// ResourceUser é o nome sob o qual as regras de perfis de usuário são registradas.
const ResourceUser = "user"

// RegisterUserPolicy segue o mesmo desenho de posts: um usuário "possui" o
// próprio perfil, então Owns resolve view/update/delete sem regra especial.
func RegisterUserPolicy(e *Evaluator) {
	e.Register(ResourceUser, ActionViewAny, Anyone)
	e.Register(ResourceUser, ActionView, Owns)
	e.Register(ResourceUser, ActionCreate, Anyone)
	e.Register(ResourceUser, ActionUpdate, Owns)
	e.Register(ResourceUser, ActionDelete, Owns)
}
