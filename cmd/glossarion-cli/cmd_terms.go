package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newTermsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terms",
		Short: "Browse the glossary catalog",
	}
	cmd.AddCommand(termsListCmd())
	cmd.AddCommand(termsGetCmd())
	return cmd
}

func termsListCmd() *cobra.Command {
	var (
		category string
		limit    int
		offset   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List terms",
		Run: func(cmd *cobra.Command, args []string) {
			terms, err := apiClient.ListTerms(context.Background(), category, limit, offset)
			if err != nil {
				fatal("list terms", err)
			}

			if flagFmt == "table" {
				rows := make([][]string, 0, len(terms))
				for _, t := range terms {
					rows = append(rows, []string{t.Slug, t.Name, t.CategoryName, t.Difficulty})
				}
				formatTable([]string{"SLUG", "NAME", "CATEGORY", "DIFFICULTY"}, rows)
				return
			}

			output(terms, "")
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Filter by category name")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum terms to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Pagination offset")
	return cmd
}

func termsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <slug>",
		Short: "Show one term with all its sections",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			term, err := apiClient.GetTerm(context.Background(), args[0])
			if err != nil {
				fatal("get term", err)
			}
			output(term, term.Slug)
		},
	}
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Run: func(cmd *cobra.Command, args []string) {
			cats, err := apiClient.ListCategories(context.Background())
			if err != nil {
				fatal("list categories", err)
			}

			if flagFmt == "table" {
				rows := make([][]string, 0, len(cats))
				for _, c := range cats {
					rows = append(rows, []string{c.ID, c.Name})
				}
				formatTable([]string{"ID", "NAME"}, rows)
				return
			}

			output(cats, "")
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Run: func(cmd *cobra.Command, args []string) {
			stats, err := apiClient.Stats(context.Background())
			if err != nil {
				fatal("get stats", err)
			}
			output(stats, "")
		},
	}
}
