package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/streamly-go/pkg/streamly"
)

func newMoviesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movies",
		Short: "Browse the movie catalog",
	}

	var page, limit, trendingLimit int
	var genre string

	list := &cobra.Command{
		Use:   "list",
		Short: "List movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *streamly.Client) error {
				result, err := client.Movies.List(ctx, &streamly.MovieQuery{Page: page, Limit: limit, Genre: genre})
				if err != nil {
					return err
				}
				return printMovieList(cmd, result)
			})
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&limit, "limit", 20, "movies per page")
	list.Flags().StringVar(&genre, "genre", "", "only this genre")

	trending := &cobra.Command{
		Use:   "trending",
		Short: "List trending movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *streamly.Client) error {
				movies, err := client.Movies.Trending(ctx, trendingLimit)
				if err != nil {
					return err
				}
				return printMovies(cmd, movies)
			})
		},
	}
	trending.Flags().IntVar(&trendingLimit, "limit", 10, "number of movies")

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies by title, director or cast",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client *streamly.Client) error {
				result, err := client.Movies.Search(ctx, strings.Join(args, " "), &streamly.PageQuery{Page: page, Limit: limit})
				if err != nil {
					return err
				}
				return printMovieList(cmd, result)
			})
		},
	}
	search.Flags().IntVar(&page, "page", 1, "page number")
	search.Flags().IntVar(&limit, "limit", 20, "movies per page")

	cmd.AddCommand(list, trending, search)
	return cmd
}

func newBooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Browse the book catalog",
	}

	var page, limit int
	var genre, sortBy string

	list := &cobra.Command{
		Use:   "list",
		Short: "List books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *streamly.Client) error {
				result, err := client.Books.List(ctx, &streamly.BookQuery{Page: page, Limit: limit, Genre: genre, SortBy: sortBy})
				if err != nil {
					return err
				}
				if flagJSON {
					return printJSON(cmd.OutOrStdout(), result)
				}

				rows := make([][]string, 0, len(result.Books))
				for _, b := range result.Books {
					rows = append(rows, []string{b.ID, truncate(b.Title, 40), b.Author, strconv.Itoa(b.TotalChapters)})
				}
				if err := printTable(cmd.OutOrStdout(), []string{"id", "title", "author", "chapters"}, rows); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%d books)\n",
					result.Pagination.Page, result.Pagination.Pages(), result.Pagination.Total)
				return nil
			})
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&limit, "limit", 20, "books per page")
	list.Flags().StringVar(&genre, "genre", "", "only this genre")
	list.Flags().StringVar(&sortBy, "sort", "", "sort field (e.g. title, publishYear)")

	cmd.AddCommand(list)
	return cmd
}

func printMovieList(cmd *cobra.Command, result *streamly.MovieList) error {
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), result)
	}
	if err := printMovies(cmd, result.Movies); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%d movies)\n",
		result.Pagination.Page, result.Pagination.Pages(), result.Pagination.Total)
	return nil
}

func printMovies(cmd *cobra.Command, movies []*streamly.Movie) error {
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), movies)
	}
	rows := make([][]string, 0, len(movies))
	for _, m := range movies {
		premium := ""
		if m.IsPremium {
			premium = "yes"
		}
		rows = append(rows, []string{
			m.ID,
			truncate(m.Title, 40),
			strings.Join(m.Genres, ", "),
			fmt.Sprintf("%.1f", m.Rating),
			premium,
		})
	}
	return printTable(cmd.OutOrStdout(), []string{"id", "title", "genres", "rating", "premium"}, rows)
}
