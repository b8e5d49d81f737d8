package handler

import (
	"jurisearch/internal/court"
	"jurisearch/internal/search/models"
	"jurisearch/pkg/domain"
	dErrors "jurisearch/pkg/domain-errors"
	"jurisearch/pkg/platform/strings"
)

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Document    string        `json:"document"`
	Tribunais   []string      `json:"tribunais,omitempty"`
	SearchAfter models.Cursor `json:"search_after,omitempty"`

	parsed domain.Document
}

// Validate parses the document and normalizes the court aliases.
func (r *SearchRequest) Validate() error {
	doc, err := domain.ParseDocument(r.Document)
	if err != nil {
		return err
	}
	r.parsed = doc
	r.Tribunais = strings.DedupeLower(r.Tribunais)
	if len(r.Tribunais) > 64 {
		return dErrors.New(dErrors.CodeValidation, "too many courts")
	}
	return nil
}

// DocumentInfo echoes the searched document.
type DocumentInfo struct {
	Number    string              `json:"number"`
	Type      domain.DocumentType `json:"type"`
	Formatted string              `json:"formatted"`
}

// SearchResponse is the body returned by POST /api/v1/search.
type SearchResponse struct {
	Document  DocumentInfo         `json:"document"`
	Results   []models.CourtResult `json:"results"`
	Errors    []string             `json:"errors"`
	Summary   models.Summary       `json:"summary"`
	NoResults bool                 `json:"no_results"`
}

func toSearchResponse(doc domain.Document, out *models.SearchOutcome) SearchResponse {
	return SearchResponse{
		Document: DocumentInfo{
			Number:    doc.Number,
			Type:      doc.Type,
			Formatted: doc.String(),
		},
		Results:   out.Results,
		Errors:    out.Errors,
		Summary:   out.Summary,
		NoResults: out.NoResults(),
	}
}

// CourtsResponse lists the registry.
type CourtsResponse struct {
	Tribunais []court.Court `json:"tribunais"`
}
