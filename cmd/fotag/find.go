package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/fotag/internal/debuglog"
	"github.com/pders01/fotag/internal/search"
)

func newFindCmd(o *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "find TEXT...",
		Short: "Search archived photos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			svc, err := openServices(cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			searcher := svc.searcher()
			if st, ok := searcher.(search.DebugStatser); ok {
				if n, err := st.DocCount(); err == nil {
					debuglog.Debugf("find: index holds %d photos", n)
				}
			}

			results, err := searcher.Search(strings.Join(args, " "), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No results")
				return nil
			}
			for _, r := range results {
				printResult(cmd, r)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", search.DefaultLimit, "maximum results")
	return cmd
}

func printResult(cmd *cobra.Command, r *search.Result) {
	out := cmd.OutOrStdout()
	p := r.Photo
	title := p.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(out, "%s  [%s]\n", title, strings.Join(p.Queries, ", "))
	if p.Link != "" {
		fmt.Fprintf(out, "  %s\n", p.Link)
	}
	for _, m := range r.Matches {
		fmt.Fprintf(out, "  %s: %s\n", m.Field, m.Text)
	}
}
