package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/orderops/internal/artifact"
)

var traceCmd = &cobra.Command{
	Use:   "trace <run-id>",
	Short: "Show the span timeline for a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore()
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close() //nolint:errcheck

		index, ok := st.(artifact.RunIndex)
		if !ok {
			return eris.New("trace: store driver does not keep a run index, use store.driver=sqlite")
		}

		spans, err := index.SpansByRun(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "trace %s", args[0])
		}
		if len(spans) == 0 {
			fmt.Fprintln(os.Stderr, "No spans recorded for this run.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SEQ\tSPAN\tOP\tSTATUS\tINPUT\tOUTPUT\tERROR")
		for _, s := range spans {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				s.Seq, s.SpanID, s.Op, s.Status, short(s.InputDigest), short(s.OutputDigest), s.ErrorDetail)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)
}
