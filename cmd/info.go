package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/brogergvhs/cuudl/internal/chapters"
	"github.com/brogergvhs/cuudl/internal/config"
	"github.com/brogergvhs/cuudl/internal/providers/cuutruyen"

	"github.com/spf13/cobra"
)

func init() {
	infoCmd := &cobra.Command{
		Use:   "info <manga id or url>",
		Short: "Show manga details and the indexed chapter list",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	id, err := cuutruyen.ParseRef(args[0])
	if err != nil {
		return err
	}

	s, _, err := newSession(config.Options{})
	if err != nil {
		return err
	}

	m, err := s.source.Details(commandContext(cmd), id)
	if err != nil {
		return err
	}

	fmt.Println(m.Title)
	if len(m.AltTitles) > 0 {
		fmt.Println("Also known as:", strings.Join(m.AltTitles, "; "))
	}
	if m.Author != "" {
		fmt.Println("Author:", m.Author)
	}
	if m.Artist != "" && m.Artist != m.Author {
		fmt.Println("Artist:", m.Artist)
	}
	if m.State != "" {
		fmt.Println("State:", m.State)
	}
	if m.NSFW {
		fmt.Println("Content: 18+")
	}
	if len(m.Tags) > 0 {
		names := make([]string, 0, len(m.Tags))
		for _, t := range m.Tags {
			names = append(names, t.Title)
		}
		fmt.Println("Tags:", strings.Join(names, ", "))
	}
	fmt.Println("URL:", m.PublicURL)
	if m.Description != "" {
		fmt.Printf("\n%s\n", m.Description)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tCHAPTER\tTITLE\tGROUP\tUPLOADED")
	for i, ch := range chapters.Wrap(m.Chapters) {
		date := ""
		if !ch.UploadDate.IsZero() {
			date = ch.UploadDate.Format("2006-01-02")
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, ch.Label, ch.Title, ch.Scanlator, date)
	}
	return w.Flush()
}
