// Package query builds the Elasticsearch-style request bodies sent to court
// indices.
package query

import "jurisearch/internal/search/models"

// Boosts per clause. The document match dominates, exact party-name matches
// come next and the wildcard multi-field clause ranks lowest.
const (
	boostWildcard  = 2
	boostPartyName = 4
	boostDocument  = 5
)

// wildcardFields are searched by the query_string clause.
var wildcardFields = []string{
	"partes.nome^3",
	"partes.pessoa.nome^3",
	"partes.documento^2",
	"movimentos.complementos",
	"numeroProcesso",
	"classe.nome",
	"assuntos.nome",
}

// highlightFields are echoed back with <mark> tags.
var highlightFields = []string{"partes.nome", "partes.pessoa.nome", "partes.documento"}

// Query is the request body for a court's _search endpoint.
type Query struct {
	Size        int                  `json:"size,omitempty"`
	Query       Clause               `json:"query"`
	Sort        []map[string]SortKey `json:"sort,omitempty"`
	SearchAfter models.Cursor        `json:"search_after,omitempty"`
	Highlight   *Highlight           `json:"highlight,omitempty"`
}

// Clause is a single query clause. Exactly one field is set.
type Clause struct {
	Bool        *BoolQuery            `json:"bool,omitempty"`
	QueryString *QueryString          `json:"query_string,omitempty"`
	Match       map[string]MatchQuery `json:"match,omitempty"`
	MatchAll    *struct{}             `json:"match_all,omitempty"`
}

// BoolQuery combines clauses.
type BoolQuery struct {
	Should             []Clause `json:"should"`
	MinimumShouldMatch int      `json:"minimum_should_match"`
}

// QueryString is a Lucene query_string clause.
type QueryString struct {
	Query           string   `json:"query"`
	Fields          []string `json:"fields"`
	DefaultOperator string   `json:"default_operator"`
	Boost           float64  `json:"boost"`
}

// MatchQuery is the body of a match clause on one field.
type MatchQuery struct {
	Query    string  `json:"query"`
	Operator string  `json:"operator,omitempty"`
	Boost    float64 `json:"boost,omitempty"`
}

// SortKey orders by one field.
type SortKey struct {
	Order string `json:"order"`
}

// Highlight requests highlighted fragments.
type Highlight struct {
	Fields   map[string]struct{} `json:"fields"`
	PreTags  []string            `json:"pre_tags"`
	PostTags []string            `json:"post_tags"`
}

// Build returns the party search for term. The sort chain (filing date desc,
// score desc, _id asc) is a total order, so a search_after cursor never skips
// or repeats a hit when dates or scores tie. pageSize is used as given; the
// upper bound is enforced by configuration.
func Build(term string, cursor models.Cursor, pageSize int) Query {
	q := Query{
		Size: pageSize,
		Query: Clause{Bool: &BoolQuery{
			Should: []Clause{
				{QueryString: &QueryString{
					Query:           "*" + term + "*",
					Fields:          append([]string(nil), wildcardFields...),
					DefaultOperator: "AND",
					Boost:           boostWildcard,
				}},
				matchClause("partes.nome", MatchQuery{Query: term, Operator: "and", Boost: boostPartyName}),
				matchClause("partes.pessoa.nome", MatchQuery{Query: term, Operator: "and", Boost: boostPartyName}),
				matchClause("partes.documento", MatchQuery{Query: term, Boost: boostDocument}),
			},
			MinimumShouldMatch: 1,
		}},
		Sort: []map[string]SortKey{
			{"dataAjuizamento": {Order: "desc"}},
			{"_score": {Order: "desc"}},
			{"_id": {Order: "asc"}},
		},
		Highlight: newHighlight(),
	}
	if len(cursor) > 0 {
		q.SearchAfter = cursor
	}
	return q
}

// ByProcessNumber matches a single process by its number.
func ByProcessNumber(number string) Query {
	return Query{Query: matchClause("numeroProcesso", MatchQuery{Query: number})}
}

// MatchAll returns any size documents; used to probe connectivity.
func MatchAll(size int) Query {
	return Query{Size: size, Query: Clause{MatchAll: &struct{}{}}}
}

func matchClause(field string, m MatchQuery) Clause {
	return Clause{Match: map[string]MatchQuery{field: m}}
}

func newHighlight() *Highlight {
	fields := make(map[string]struct{}, len(highlightFields))
	for _, f := range highlightFields {
		fields[f] = struct{}{}
	}
	return &Highlight{
		Fields:   fields,
		PreTags:  []string{"<mark>"},
		PostTags: []string{"</mark>"},
	}
}
