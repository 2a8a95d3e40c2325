package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/accord/internal/adapters/driving/oauth"
	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driving"
	"github.com/custodia-labs/accord/internal/logger"
)

// openBrowser is replaced in tests.
var openBrowser = oauth.OpenBrowser

var (
	loginNoBrowser bool
	loginTimeout   time.Duration
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to DocuSign",
	Long: `Opens the DocuSign consent page and waits for the redirect on the local
callback address. The session lives only as long as this process, so use
"accord import --login" to log in and import in one run.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	addLoginFlags(loginCmd)
	rootCmd.AddCommand(loginCmd)
}

func addLoginFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "print the login URL instead of opening a browser")
	cmd.Flags().DurationVar(&loginTimeout, "timeout", 0, "how long to wait for the redirect (default from config, 5m)")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	rt, err := runtimeOrErr()
	if err != nil {
		return err
	}
	auth, err := rt.Auth()
	if err != nil {
		return err
	}

	session, err := login(cmd.Context(), cmd.OutOrStdout(), auth, rt.Login())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in to account %s\n", session.AccountID)
	return nil
}

// login runs one authorization attempt end to end.
func login(ctx context.Context, out io.Writer, auth driving.AuthService, settings LoginSettings) (*domain.AuthSession, error) {
	timeout := loginTimeout
	if timeout <= 0 {
		timeout = settings.Timeout
	}

	attempt, err := auth.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("start login: %w", err)
	}

	server, err := oauth.NewCallbackServer(settings.RedirectURI, attempt.State)
	if err != nil {
		return nil, err
	}
	if err := server.Start(); err != nil {
		return nil, err
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logger.Warn("stop callback server: %v", err)
		}
	}()
	logger.Debug("callback server listening on %s", server.Addr())

	if loginNoBrowser {
		fmt.Fprintf(out, "Open this URL to log in:\n\n  %s\n\n", attempt.AuthURL)
	} else if err := openBrowser(attempt.AuthURL); err != nil {
		fmt.Fprintf(out, "Could not open a browser (%v). Open this URL to log in:\n\n  %s\n\n", err, attempt.AuthURL)
	} else {
		fmt.Fprintln(out, "Opened the DocuSign login page in your browser.")
	}

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	fmt.Fprintln(out, "Waiting for authorization...")

	code, err := server.WaitForCode(waitCtx)
	if err != nil {
		return nil, err
	}

	session, err := auth.Complete(ctx, attempt.State, code)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return session, nil
}
