package db

// Métodos que ligam os modelos gerados ao Evaluator de políticas. Ficam
// neste arquivo para sobreviver a regenerações do sqlc.

// ActorID identifica o usuário como ator nas decisões de autorização.
func (u User) ActorID() any { return u.ID }

// RoleName expõe o papel do usuário para o before-hook de grants.
func (u User) RoleName() string { return u.RoleID }

// OwnerID de um perfil é o próprio usuário: cada um é dono do seu.
func (u User) OwnerID() any { return u.ID }

// OwnerID identifica o autor do post para as regras de ownership.
func (p Post) OwnerID() any { return p.UserID }

// OwnerID das linhas de listagem permite esconder botões de ação
// reavaliando as mesmas regras usadas nos handlers.
func (r ListPostsPaginatedRow) OwnerID() any { return r.UserID }

func (r ListPostsByAuthorPaginatedRow) OwnerID() any { return r.UserID }

func (r SearchPostsPaginatedRow) OwnerID() any { return r.UserID }
