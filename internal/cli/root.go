// Package cli implements the jurisearch command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"jurisearch/internal/app"
	"jurisearch/internal/platform/config"
	"jurisearch/internal/platform/logger"
	"jurisearch/internal/search"
	"jurisearch/internal/search/models"
)

const (
	formatJSON = "json"
	formatText = "text"
)

var (
	formatFlag  string
	timeoutFlag time.Duration
	verboseFlag bool
)

// Service is what the commands need from the search service.
type Service interface {
	Search(ctx context.Context, req search.SearchRequest) (*models.SearchOutcome, error)
	ProcessDetails(ctx context.Context, number, alias string) (*models.Process, error)
	TestConnectivity(ctx context.Context) models.ConnectivityResult
}

// newService is swapped in tests.
var newService = func(ctx context.Context) (Service, func(), error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, nil, err
	}
	if !verboseFlag {
		cfg.Log.Level = "warn"
	}
	cfg.Log.Format = "text"
	a, err := app.New(ctx, cfg, logger.NewWithWriter(os.Stderr, cfg.Log), nil)
	if err != nil {
		return nil, nil, err
	}
	return a.Service, func() { _ = a.Close() }, nil
}

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "jurisearch",
	Short: "Search Brazilian court records by CPF or CNPJ",
	Long:  "Queries the DataJud public API across federal, superior and electoral courts and prints what each court returned.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if formatFlag != formatJSON && formatFlag != formatText {
			return fmt.Errorf("--format must be %s or %s", formatJSON, formatText)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", formatText, "Output format: json or text")
	RootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 2*time.Minute, "Overall deadline for the command")
	RootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log service activity to stderr")
}

// withService opens the service under the command deadline and runs fn.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeoutFlag)
	defer cancel()

	svc, closeFn, err := newService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
