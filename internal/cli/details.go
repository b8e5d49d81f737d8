package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"jurisearch/internal/search/models"
	"jurisearch/pkg/domain"
	dErrors "jurisearch/pkg/domain-errors"
)

func init() {
	cmd := &cobra.Command{
		Use:   "details <process-number>",
		Short: "Show one process in full",
		Args:  cobra.ExactArgs(1),
		RunE:  runDetails,
	}

	cmd.Flags().StringP("tribunal", "t", "", "Court alias that holds the process")
	cmd.Flags().Int("movements", 20, "Movements shown in text output (0 for all)")
	_ = cmd.MarkFlagRequired("tribunal")

	RootCmd.AddCommand(cmd)
}

func runDetails(cmd *cobra.Command, args []string) error {
	number := domain.StripNonDigits(args[0])
	if number == "" {
		return dErrors.New(dErrors.CodeValidation, "process number must contain digits")
	}
	tribunal, _ := cmd.Flags().GetString("tribunal")
	movements, _ := cmd.Flags().GetInt("movements")

	return withService(cmd, func(ctx context.Context, svc Service) error {
		p, err := svc.ProcessDetails(ctx, number, strings.ToLower(tribunal))
		if err != nil {
			return err
		}
		if p == nil {
			return dErrors.New(dErrors.CodeNotFound,
				fmt.Sprintf("process %s not found in %s", domain.FormatProcessNumber(number), tribunal))
		}
		if formatFlag == formatJSON {
			return printJSON(cmd.OutOrStdout(), p)
		}
		writeDetailsText(cmd.OutOrStdout(), p, movements)
		return nil
	})
}

func writeDetailsText(w io.Writer, p *models.Process, movements int) {
	fmt.Fprintf(w, "Process %s\n", domain.FormatProcessNumber(p.NumeroProcesso))
	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "  %-14s %s\n", label+":", value)
		}
	}
	field("Court", p.Tribunal)
	field("Degree", p.Grau)
	if p.Classe != nil {
		field("Class", p.Classe.Nome)
	}
	if p.Sistema != nil {
		field("System", p.Sistema.Nome)
	}
	if p.Formato != nil {
		field("Format", p.Formato.Nome)
	}
	if p.OrgaoJulgador != nil {
		field("Judging body", p.OrgaoJulgador.Nome)
	}
	if p.DataAjuizamento != "" {
		field("Filed", domain.FormatDate(p.DataAjuizamento))
	}
	if p.DataHoraUltimaAtualizacao != "" {
		field("Updated", domain.FormatDateTime(p.DataHoraUltimaAtualizacao))
	}

	if len(p.Assuntos) > 0 {
		names := make([]string, len(p.Assuntos))
		for i, a := range p.Assuntos {
			names[i] = a.Nome
		}
		field("Subjects", strings.Join(names, "; "))
	}

	if len(p.Partes) > 0 {
		fmt.Fprintln(w, "\nParties:")
		for _, pt := range p.Partes {
			line := pt.Nome
			if pt.Tipo != "" {
				line += " (" + pt.Tipo + ")"
			}
			if pt.Documento != "" {
				line += " " + domain.FormatDocument(pt.Documento)
			}
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	moves := p.MovementsNewestFirst()
	if len(moves) == 0 {
		return
	}
	fmt.Fprintf(w, "\nMovements (%d, newest first):\n", len(moves))
	for i, m := range moves {
		if movements > 0 && i >= movements {
			fmt.Fprintf(w, "  ... %d more\n", len(moves)-movements)
			break
		}
		fmt.Fprintf(w, "  %s  %s\n", domain.FormatDateTime(m.DataHora), m.Nome)
		for _, c := range m.Complementos {
			fmt.Fprintf(w, "      %s\n", domain.Truncate(c.Nome, 100))
		}
	}
}
