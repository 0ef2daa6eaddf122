package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/brogergvhs/cuudl/internal/config"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "tags",
		Short: "List the tags known to the site",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, _, err := newSession(config.Options{})
			if err != nil {
				return err
			}

			tags, err := s.source.Tags(commandContext(cmd))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "KEY\tTITLE")
			for _, t := range tags {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", t.Key, t.Title)
			}
			return w.Flush()
		},
	})
}
