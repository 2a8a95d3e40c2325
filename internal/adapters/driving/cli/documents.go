package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var documentsLimit int

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List ingested agreements",
	Long:  `Lists the agreements recorded in the local ingest ledger, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runDocuments,
}

func init() {
	documentsCmd.Flags().IntVarP(&documentsLimit, "limit", "n", 20, "maximum number of documents (0 = all)")
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	rt, err := runtimeOrErr()
	if err != nil {
		return err
	}
	svc, err := rt.Documents()
	if err != nil {
		return err
	}

	entries, err := svc.List(cmd.Context(), documentsLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No documents ingested yet")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INGESTED\tORIGIN\tTITLE\tKEY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.IngestedAt.Local().Format(time.DateTime), e.Origin, orNA(e.Title), e.Key)
	}
	return tw.Flush()
}
