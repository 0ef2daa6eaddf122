package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/brogergvhs/cuudl/internal/config"

	"github.com/spf13/cobra"
)

var (
	flagListPage  int
	flagListQuery string
)

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recently updated manga, or search with --query",
		RunE:  runList,
	}

	listCmd.Flags().IntVar(&flagListPage, "page", 1, "result page")
	listCmd.Flags().StringVarP(&flagListQuery, "query", "q", "", "search term")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	s, _, err := newSession(config.Options{})
	if err != nil {
		return err
	}

	mangas, err := s.source.List(commandContext(cmd), flagListPage, flagListQuery)
	if err != nil {
		return err
	}
	if len(mangas) == 0 {
		fmt.Println("Nothing found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tSTATE\t")
	for _, m := range mangas {
		nsfw := ""
		if m.NSFW {
			nsfw = "18+"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", m.ID, m.Title, m.Author, m.State, nsfw)
	}
	return w.Flush()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
