package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shelver/internal/bookindex"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the offline book index used by the local metadata source",
	}

	indexCmd.AddCommand(newIndexAddCommand(ctx))
	indexCmd.AddCommand(newIndexImportCommand(ctx))
	indexCmd.AddCommand(newIndexCountCommand(ctx))

	return indexCmd
}

func newIndexAddCommand(ctx *commandContext) *cobra.Command {
	var book bookindex.Book

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update one book in the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withIndex(func(index *bookindex.Store) error {
				if err := index.Add(cmd.Context(), book); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Indexed %q by %q\n", book.Title, book.Author)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&book.Author, "author", "", "Author name")
	cmd.Flags().StringVar(&book.Title, "title", "", "Book title")
	cmd.Flags().StringVar(&book.Series, "series", "", "Series name")
	cmd.Flags().StringVar(&book.SeriesPos, "position", "", "Position within the series")
	cmd.Flags().StringVar(&book.Narrator, "narrator", "", "Narrator name")
	cmd.Flags().IntVar(&book.Year, "year", 0, "Release year")
	_ = cmd.MarkFlagRequired("author")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newIndexImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import books from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer file.Close()

			return ctx.withIndex(func(index *bookindex.Store) error {
				count, err := index.ImportJSON(cmd.Context(), file)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d books\n", count)
				return nil
			})
		},
	}
}

func newIndexCountCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Report how many books the index holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withIndex(func(index *bookindex.Store) error {
				count, err := index.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d books indexed\n", count)
				return nil
			})
		},
	}
}
