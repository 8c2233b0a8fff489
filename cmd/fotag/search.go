package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pders01/fotag/internal/gallery"
)

// maxConcurrentTags bounds parallel feed requests of one search command.
const maxConcurrentTags = 4

func newSearchCmd(o *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search TAG...",
		Short: "Print the latest photos for one or more tags",
		Long: `Fetch the public feed for every tag concurrently and print the photos.

Examples:
  fotag search cats
  fotag search cats dogs --limit 5`,
		Args: cobra.MinimumNArgs(1),
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

			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			mapper := gallery.NewMapper(loc)

			results := make([][]gallery.DisplayPhoto, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(maxConcurrentTags)
			for i, tag := range args {
				i, tag := i, tag
				g.Go(func() error {
					res, err := svc.client.Fetch(ctx, tag)
					if err != nil {
						return fmt.Errorf("searching %q: %w", tag, err)
					}
					if res == nil {
						return fmt.Errorf("searching %q: empty response", tag)
					}
					photos, err := mapper.ToDisplayPhotos(res.Items)
					if err != nil {
						return fmt.Errorf("searching %q: %w", tag, err)
					}
					results[i] = photos
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, tag := range args {
				printPhotos(out, tag, results[i], limit)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum photos per tag (0 for all)")
	return cmd
}

func printPhotos(w io.Writer, tag string, photos []gallery.DisplayPhoto, limit int) {
	if limit > 0 && len(photos) > limit {
		photos = photos[:limit]
	}
	fmt.Fprintf(w, "# %s (%d)\n", tag, len(photos))
	if len(photos) == 0 {
		fmt.Fprintln(w, "  no photos")
	}
	for _, p := range photos {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(w, "  %s\n", title)
		fmt.Fprintf(w, "    %s • %s\n", p.Author, p.PublishedAt)
		if p.URL != "" {
			fmt.Fprintf(w, "    %s\n", p.URL)
		}
		if text := gallery.PlainText(p.Description); text != "" {
			fmt.Fprintf(w, "    %s\n", text)
		}
	}
	fmt.Fprintln(w)
}
