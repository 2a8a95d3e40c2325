package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the external services",
	Long: `Pings the embedding endpoints, the vector store, the answer generator and
the DocuSign session, and lists settings that are still missing.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	rt, err := runtimeOrErr()
	if err != nil {
		return err
	}

	statuses := rt.Status(cmd.Context()).Check(cmd.Context())

	out := cmd.OutOrStdout()
	p := newPainter(out)
	fmt.Fprintln(out, p.paint(headingStyle, "Service status"))

	width := 0
	for _, s := range statuses {
		width = max(width, len(s.Name))
	}
	for _, s := range statuses {
		mark := p.paint(okStyle, "ok  ")
		if !s.OK {
			mark = p.paint(failStyle, "FAIL")
		}
		fmt.Fprintf(out, "  %s  %-*s  %s\n", mark, width, s.Name, p.paint(dimStyle, s.Detail))
	}
	return nil
}
