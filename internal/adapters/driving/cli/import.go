package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driving"
)

var (
	importSince string
	importLogin bool

	envelopesSince string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import agreements from DocuSign envelopes",
	Long: `Downloads every document of every envelope sent since --since (default:
the last 30 days) and ingests it. Signing certificates are skipped.

Requires a DocuSign session. Sessions are not stored, so pass --login to
log in first within the same run.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

var envelopesCmd = &cobra.Command{
	Use:   "envelopes",
	Short: "List DocuSign envelopes",
	Args:  cobra.NoArgs,
	RunE:  runEnvelopes,
}

func init() {
	importCmd.Flags().StringVar(&importSince, "since", "", "only envelopes sent on or after this date (YYYY-MM-DD or RFC 3339)")
	importCmd.Flags().BoolVar(&importLogin, "login", false, "log in to DocuSign before importing")
	addLoginFlags(importCmd)

	envelopesCmd.Flags().StringVar(&envelopesSince, "since", "", "only envelopes sent on or after this date (YYYY-MM-DD or RFC 3339)")
	envelopesCmd.Flags().BoolVar(&importLogin, "login", false, "log in to DocuSign before listing")
	addLoginFlags(envelopesCmd)

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(envelopesCmd)
}

// parseSince accepts a date or an RFC 3339 timestamp. Empty means zero.
func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --since %q is not YYYY-MM-DD or RFC 3339", domain.ErrInvalidInput, s)
	}
	return t, nil
}

// ensureSession logs in when asked and otherwise requires a valid session.
func ensureSession(cmd *cobra.Command, rt Runtime) error {
	auth, err := rt.Auth()
	if err != nil {
		return err
	}
	if importLogin {
		session, err := login(cmd.Context(), cmd.OutOrStdout(), auth, rt.Login())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in to account %s\n", session.AccountID)
		return nil
	}
	if !auth.Session().Valid() {
		return fmt.Errorf("%w: pass --login to log in to DocuSign first", domain.ErrAuthRequired)
	}
	return nil
}

func importService(cmd *cobra.Command) (driving.ImportService, error) {
	rt, err := runtimeOrErr()
	if err != nil {
		return nil, err
	}
	svc, err := rt.Import(cmd.Context())
	if err != nil {
		return nil, err
	}
	if err := ensureSession(cmd, rt); err != nil {
		return nil, err
	}
	return svc, nil
}

func runImport(cmd *cobra.Command, _ []string) error {
	since, err := parseSince(importSince)
	if err != nil {
		return err
	}
	svc, err := importService(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report, err := svc.Import(cmd.Context(), since)
	for _, item := range report.Items {
		printItem(out, item)
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if len(report.Items) == 0 {
		fmt.Fprintln(out, "No documents found")
		return nil
	}
	printSummary(out, report)
	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d documents failed", len(failed), len(report.Items))
	}
	return nil
}

func runEnvelopes(cmd *cobra.Command, _ []string) error {
	since, err := parseSince(envelopesSince)
	if err != nil {
		return err
	}
	svc, err := importService(cmd)
	if err != nil {
		return err
	}

	envelopes, err := svc.Envelopes(cmd.Context(), since)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(envelopes) == 0 {
		fmt.Fprintln(out, "No envelopes found")
		return nil
	}
	p := newPainter(out)
	for _, env := range envelopes {
		sent := ""
		if !env.SentDateTime.IsZero() {
			sent = env.SentDateTime.Format(time.DateOnly)
		}
		fmt.Fprintf(out, "%s  %s  %-10s %s\n",
			p.paint(dimStyle, env.EnvelopeID), sent, env.Status, orNA(env.EmailSubject))
		for _, doc := range env.Documents {
			if doc.IsCertificate() {
				continue
			}
			fmt.Fprintf(out, "    %s\n", doc.Name)
		}
	}
	return nil
}
