package view

import (
	"fmt"
	"net/url"
)

// Pagination carrega o estado de navegação das listagens. A janela de
// números e os links ficam em métodos para o template só imprimir.
type Pagination struct {
	CurrentPage int
	TotalItems  int
	PerPage     int
}

func NewPagination(page, total, perPage int) Pagination {
	p := Pagination{CurrentPage: max(page, 1), TotalItems: total, PerPage: perPage}
	if p.PerPage < 1 {
		p.PerPage = 10
	}
	return p
}

// TotalPages arredonda para cima sem passar por float.
func (p Pagination) TotalPages() int {
	return (p.TotalItems + p.PerPage - 1) / p.PerPage
}

func (p Pagination) HasPrevious() bool { return p.CurrentPage > 1 }

func (p Pagination) HasNext() bool { return p.CurrentPage < p.TotalPages() }

// PreviousPage e NextPage prendem o resultado na faixa válida, então o
// template pode montar o link sem checar HasPrevious de novo.
func (p Pagination) PreviousPage() int {
	return max(p.CurrentPage-1, 1)
}

func (p Pagination) NextPage() int {
	return min(p.CurrentPage+1, p.TotalPages())
}

// Window retorna os números de página a exibir: a atual e até duas
// vizinhas de cada lado, sem estourar os limites.
func (p Pagination) Window() []int {
	total := p.TotalPages()
	if total == 0 {
		return nil
	}

	first := max(p.CurrentPage-2, 1)
	last := min(p.CurrentPage+2, total)

	pages := make([]int, 0, last-first+1)
	for i := first; i <= last; i++ {
		pages = append(pages, i)
	}
	return pages
}

// PageURL monta o link de uma página preservando o termo de busca.
func (p Pagination) PageURL(base string, page int, search string) string {
	if search == "" {
		return fmt.Sprintf("%s?page=%d", base, page)
	}
	return fmt.Sprintf("%s?page=%d&search=%s", base, page, url.QueryEscape(search))
}
