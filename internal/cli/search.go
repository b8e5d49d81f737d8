package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jurisearch/internal/search"
	"jurisearch/internal/search/models"
	"jurisearch/pkg/domain"
	"jurisearch/pkg/platform/strings"
)

type documentInfo struct {
	Number    string              `json:"number"`
	Type      domain.DocumentType `json:"type"`
	Formatted string              `json:"formatted"`
}

type searchOutput struct {
	Document  documentInfo         `json:"document"`
	Results   []models.CourtResult `json:"results"`
	Errors    []string             `json:"errors"`
	Summary   models.Summary       `json:"summary"`
	NoResults bool                 `json:"no_results"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "search <cpf-or-cnpj>",
		Short: "Search every court for processes involving a document",
		Long:  "Validates the CPF or CNPJ, queries the selected courts in parallel and prints each court's page of results and any failures.",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().StringSliceP("tribunal", "t", nil, "Court alias to query (repeatable; default all)")
	cmd.Flags().String("after", "", "Continuation cursor (JSON array from nextSearchAfter)")
	cmd.Flags().Int("movements", 3, "Movements shown per process in text output")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	doc, err := domain.ParseDocument(args[0])
	if err != nil {
		return err
	}
	tribunals, _ := cmd.Flags().GetStringSlice("tribunal")
	after, _ := cmd.Flags().GetString("after")
	movements, _ := cmd.Flags().GetInt("movements")

	var cursor models.Cursor
	if after != "" {
		if err := json.Unmarshal([]byte(after), &cursor); err != nil {
			return fmt.Errorf("--after must be a JSON array: %w", err)
		}
	}

	return withService(cmd, func(ctx context.Context, svc Service) error {
		out, err := svc.Search(ctx, search.SearchRequest{
			Term:   doc.Number,
			Courts: strings.DedupeLower(tribunals),
			Cursor: cursor,
		})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if formatFlag == formatJSON {
			return printJSON(w, searchOutput{
				Document:  documentInfo{Number: doc.Number, Type: doc.Type, Formatted: doc.String()},
				Results:   out.Results,
				Errors:    out.Errors,
				Summary:   out.Summary,
				NoResults: out.NoResults(),
			})
		}
		writeSearchText(w, doc, out, movements)
		return nil
	})
}

func writeSearchText(w io.Writer, doc domain.Document, out *models.SearchOutcome, movements int) {
	fmt.Fprintf(w, "Document: %s (%s)\n", doc.String(), doc.Type)
	s := out.Summary
	fmt.Fprintf(w, "Courts queried: %d, with results: %d, processes: %d\n",
		s.TribunaisConsultados, s.TribunaisComResultados, s.TotalProcessos)

	if out.NoResults() {
		fmt.Fprintln(w, "\nNo processes found for this document.")
		return
	}

	for _, r := range out.Results {
		if len(r.Processos) == 0 {
			continue
		}
		cached := ""
		if r.Cached {
			cached = " [cached]"
		}
		fmt.Fprintf(w, "\n%s (%s): %d of %d%s\n", r.Tribunal, r.Alias, len(r.Processos), r.TotalProcessos, cached)
		for i := range r.Processos {
			writeProcessLine(w, &r.Processos[i], movements)
		}
		if r.HasMore {
			next, _ := json.Marshal(r.NextSearchAfter)
			fmt.Fprintf(w, "  more results: --tribunal %s --after '%s'\n", r.Alias, next)
		}
	}

	if len(out.Errors) > 0 {
		fmt.Fprintln(w, "\nCourts that failed:")
		for _, e := range out.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
}

func writeProcessLine(w io.Writer, p *models.Process, movements int) {
	fmt.Fprintf(w, "  %s", domain.FormatProcessNumber(p.NumeroProcesso))
	if p.Classe != nil {
		fmt.Fprintf(w, "  %s", p.Classe.Nome)
	}
	if p.DataAjuizamento != "" {
		fmt.Fprintf(w, "  filed %s", domain.FormatDate(p.DataAjuizamento))
	}
	fmt.Fprintln(w)
	if p.OrgaoJulgador != nil {
		fmt.Fprintf(w, "    %s\n", p.OrgaoJulgador.Nome)
	}
	for i, m := range p.MovementsNewestFirst() {
		if i >= movements {
			break
		}
		fmt.Fprintf(w, "    %s  %s\n", domain.FormatDateTime(m.DataHora), domain.Truncate(m.Nome, 80))
	}
}
