// Package cli implements the accord command line with cobra.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/accord/internal/core/ports/driving"
	"github.com/custodia-labs/accord/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Runtime supplies services to the commands. Services that need settings
// are built on first use, so a command only fails on the settings it
// actually needs.
type Runtime interface {
	// Search returns the search service. withAnswer also builds the
	// answer generator when one is configured.
	Search(ctx context.Context, withAnswer bool) (driving.SearchService, error)

	// Ingest returns the upload pipeline.
	Ingest(ctx context.Context, skipUnchanged bool) (driving.IngestService, error)

	// Import returns the DocuSign import service.
	Import(ctx context.Context) (driving.ImportService, error)

	// Auth returns the DocuSign login flow.
	Auth() (driving.AuthService, error)

	// Documents returns the ingest ledger view.
	Documents() (driving.DocumentService, error)

	// Status returns the dependency health check.
	Status(ctx context.Context) driving.StatusService

	// Login returns the redirect URI and the default wait for the callback.
	Login() LoginSettings

	// Close releases everything that was built.
	Close() error
}

// LoginSettings configures the local callback listener.
type LoginSettings struct {
	RedirectURI string
	Timeout     time.Duration
}

// ErrNotConfigured is returned when no Runtime was set.
var ErrNotConfigured = errors.New("accord is not configured")

var app Runtime

var rootCmd = &cobra.Command{
	Use:   "accord",
	Short: "Search your agreements",
	Long: `accord ingests agreements from local files and DocuSign envelopes into a
vector store and answers questions about them.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline details to stderr")
}

// SetRuntime sets the services the commands run against.
func SetRuntime(r Runtime) {
	app = r
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func runtimeOrErr() (Runtime, error) {
	if app == nil {
		return nil, ErrNotConfigured
	}
	return app, nil
}
