package db

// Página ou tamanho fora da faixa caem nos defaults em vez de virar erro:
// query string ruim não é motivo para derrubar uma listagem.
const defaultPerPage = 10

// PagingParams traduz page/per_page da query string em limit/offset.
type PagingParams struct {
	Page    int
	PerPage int
}

func (p PagingParams) normalized() PagingParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	return p
}

func (p PagingParams) Limit() int {
	return p.normalized().PerPage
}

func (p PagingParams) Offset() int {
	p = p.normalized()
	return (p.Page - 1) * p.PerPage
}
