package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var artifactCmd = &cobra.Command{
	Use:   "artifact",
	Short: "Inspect the content-addressed artifact store",
}

var artifactGetCmd = &cobra.Command{
	Use:   "get <digest>",
	Short: "Print an artifact's content by digest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore()
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close() //nolint:errcheck

		content, _, err := st.Get(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "artifact get %s", args[0])
		}
		_, err = os.Stdout.Write(content)
		return err
	},
}

var artifactListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored artifacts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore()
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close() //nolint:errcheck

		infos, err := st.List(ctx)
		if err != nil {
			return eris.Wrap(err, "artifact list")
		}
		if len(infos) == 0 {
			fmt.Fprintln(os.Stderr, "No artifacts stored.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DIGEST\tTYPE\tBYTES")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%s\t%d\n", info.Digest, info.ContentType, info.Length)
		}
		return w.Flush()
	},
}

func init() {
	artifactCmd.AddCommand(artifactGetCmd, artifactListCmd)
	rootCmd.AddCommand(artifactCmd)
}
