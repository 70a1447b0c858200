package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/orderops/internal/builder"
	"github.com/sells-group/orderops/internal/model"
	"github.com/sells-group/orderops/internal/pipeline"
	"github.com/sells-group/orderops/internal/tabular"
)

var analyzeFormat string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <dir>",
	Short: "Analyze a directory of order documents",
	Long:  "Parses every document in the directory, merges records into canonical orders, reconciles ETAs, and prints per-order incidents.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		docs, err := loadDocuments(args[0])
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Fprintln(os.Stderr, "No documents found.")
			return nil
		}

		st, err := initStore()
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close() //nolint:errcheck

		var precedence *builder.PrecedenceTable
		if cfg.Merge.PrecedenceTable != "" {
			precedence, err = builder.LoadPrecedence(cfg.Merge.PrecedenceTable)
			if err != nil {
				return eris.Wrap(err, "load precedence table")
			}
		}
		var aliases *tabular.AliasTable
		if cfg.Merge.AliasTable != "" {
			aliases, err = tabular.LoadAliases(cfg.Merge.AliasTable)
			if err != nil {
				return eris.Wrap(err, "load alias table")
			}
		}

		p := pipeline.New(cfg, st, precedence, aliases)
		run, err := p.Run(ctx, docs)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		if analyzeFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}
		return formatRunSummary(os.Stdout, run)
	},
}

func formatRunSummary(out io.Writer, run *model.Run) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tINCIDENTS\tORDER DIGEST\tERROR")
	for _, o := range run.Orders {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", o.OrderID, o.Incidents, short(o.OrderDigest), o.Error)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nRun %s: %d orders, status %s\n", run.ID, len(run.Orders), run.Status)
	return nil
}

// loadDocuments reads every regular file in dir, sorted by name.
func loadDocuments(dir string) ([]pipeline.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read directory %s", dir)
	}
	var docs []pipeline.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			zap.L().Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			continue
		}
		docs = append(docs, pipeline.Document{Name: entry.Name(), Content: content})
	}
	return docs, nil
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "table", "output format: table or json")
	rootCmd.AddCommand(analyzeCmd)
}
