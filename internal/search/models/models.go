package models

// Cursor is the sort-key tuple of the last hit of a page (search_after).
// Values are passed back to the backend verbatim.
type Cursor []any

// CodeName is a (code, label) pair used for class, system, format and subjects.
type CodeName struct {
	Codigo int    `json:"codigo"`
	Nome   string `json:"nome"`
}

// JudgingBody is the court unit handling a process.
type JudgingBody struct {
	Codigo              int        `json:"codigo"`
	Nome                string     `json:"nome"`
	CodigoMunicipioIBGE FlexString `json:"codigoMunicipioIBGE,omitempty"`
}

// Party is a litigant.
type Party struct {
	Nome      string `json:"nome"`
	Tipo      string `json:"tipo,omitempty"`
	Documento string `json:"documento,omitempty"`
}

// Complement qualifies a movement (e.g. the kind of decision issued).
type Complement struct {
	Codigo    int    `json:"codigo"`
	Valor     int    `json:"valor"`
	Nome      string `json:"nome"`
	Descricao string `json:"descricao"`
}

// Movement is one procedural event.
type Movement struct {
	Codigo       int          `json:"codigo"`
	Nome         string       `json:"nome"`
	DataHora     string       `json:"dataHora,omitempty"`
	Complementos []Complement `json:"complementosTabelados,omitempty"`
}

// Process is a judicial process as indexed by one court.
type Process struct {
	NumeroProcesso            string              `json:"numeroProcesso"`
	Tribunal                  string              `json:"tribunal"`
	Grau                      string              `json:"grau,omitempty"`
	DataAjuizamento           string              `json:"dataAjuizamento,omitempty"`
	DataHoraUltimaAtualizacao string              `json:"dataHoraUltimaAtualizacao,omitempty"`
	Classe                    *CodeName           `json:"classe,omitempty"`
	Sistema                   *CodeName           `json:"sistema,omitempty"`
	Formato                   *CodeName           `json:"formato,omitempty"`
	OrgaoJulgador             *JudgingBody        `json:"orgaoJulgador,omitempty"`
	Assuntos                  []CodeName          `json:"assuntos,omitempty"`
	Partes                    []Party             `json:"partes,omitempty"`
	Movimentos                []Movement          `json:"movimentos,omitempty"`
	Highlight                 map[string][]string `json:"highlight,omitempty"`
}

// MovementsNewestFirst returns a reversed copy of the movements. The stored
// order (ascending, as received) is left untouched.
func (p *Process) MovementsNewestFirst() []Movement {
	out := make([]Movement, len(p.Movimentos))
	for i, m := range p.Movimentos {
		out[len(out)-1-i] = m
	}
	return out
}

// LastMovement returns the most recent movement, if any.
func (p *Process) LastMovement() (Movement, bool) {
	if len(p.Movimentos) == 0 {
		return Movement{}, false
	}
	return p.Movimentos[len(p.Movimentos)-1], true
}

// CourtResult is one court's page of results.
type CourtResult struct {
	Processos       []Process `json:"processos"`
	TotalProcessos  int       `json:"totalProcessos"`
	Tribunal        string    `json:"tribunal"`
	Alias           string    `json:"alias"`
	HasMore         bool      `json:"hasMore"`
	NextSearchAfter Cursor    `json:"nextSearchAfter,omitempty"`
	Cached          bool      `json:"cached"`
}

// CourtTotal is a (court name, record count) pair for courts with results.
type CourtTotal struct {
	Nome  string `json:"nome"`
	Total int    `json:"total"`
}

// Summary holds the aggregate counts of one search.
type Summary struct {
	TotalProcessos         int          `json:"totalProcessos"`
	TribunaisConsultados   int          `json:"tribunaisConsultados"`
	TribunaisComResultados int          `json:"tribunaisComResultados"`
	PorTribunal            []CourtTotal `json:"tribunaisResultados"`
}

// SearchOutcome is the transient result of one fan-out.
type SearchOutcome struct {
	Results []CourtResult `json:"results"`
	Errors  []string      `json:"errors"`
	Summary Summary       `json:"summary"`
}

// Processes concatenates every court's records in result order.
func (o *SearchOutcome) Processes() []Process {
	var out []Process
	for _, r := range o.Results {
		out = append(out, r.Processos...)
	}
	return out
}

// NoResults reports the zero-records-and-zero-errors state. Zero records with
// errors is a different state the caller must present differently.
func (o *SearchOutcome) NoResults() bool {
	return o.Summary.TotalProcessos == 0 && len(o.Errors) == 0
}

// Summarize computes the aggregate counts from results.
func Summarize(results []CourtResult) Summary {
	s := Summary{
		TribunaisConsultados: len(results),
		PorTribunal:          []CourtTotal{},
	}
	for _, r := range results {
		s.TotalProcessos += len(r.Processos)
		if len(r.Processos) > 0 {
			s.TribunaisComResultados++
			s.PorTribunal = append(s.PorTribunal, CourtTotal{Nome: r.Tribunal, Total: len(r.Processos)})
		}
	}
	return s
}

// ConnectivityResult is the outcome of a connectivity probe.
type ConnectivityResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
