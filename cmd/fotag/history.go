package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pders01/fotag/internal/storage"
)

func newHistoryCmd(o *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List earlier tag searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			store, err := storage.NewStore(cfg.Database.Path, cfg.Database.Timeout)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.RecentSearches(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No searches yet")
				return nil
			}
			fmt.Fprintln(out, historyTable(records))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of searches to show (0 for all)")

	cmd.AddCommand(newForgetCmd(o))
	return cmd
}

func historyTable(records []*storage.SearchRecord) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Tag,
			strconv.Itoa(r.Runs),
			strconv.Itoa(r.LastCount),
			r.LastRun.Local().Format("2006-01-02 15:04"),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("TAG", "RUNS", "PHOTOS", "LAST RUN").
		Rows(rows...).
		String()
}

func newForgetCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "forget TAG",
		Short: "Remove a search and the photos only it returned",
		Args:  cobra.ExactArgs(1),
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

			removed, updated, err := svc.store.DeleteSearch(args[0])
			if err != nil {
				return err
			}
			if svc.index != nil {
				if err := svc.index.Remove(removed); err != nil {
					return fmt.Errorf("updating search index: %w", err)
				}
				if err := svc.index.Refresh(updated); err != nil {
					return fmt.Errorf("updating search index: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot %q (%d photos removed)\n", storage.NormalizeTag(args[0]), len(removed))
			return nil
		},
	}
}
