package main

import (
	"context"
	"fmt"

	"github.com/eshaffer321/streamly-go/pkg/streamly"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// streamlyTools holds the Streamly client and implements all tool handlers
type streamlyTools struct {
	client *streamly.Client
}

type MovieEntry struct {
	ID        string   `json:"id" jsonschema:"Movie ID"`
	Title     string   `json:"title" jsonschema:"Movie title"`
	Genres    []string `json:"genres,omitempty" jsonschema:"Genres"`
	Rating    float64  `json:"rating" jsonschema:"Average rating from 0 to 5"`
	Year      int      `json:"year,omitempty" jsonschema:"Release year"`
	IsPremium bool     `json:"isPremium" jsonschema:"Whether the movie needs a premium account"`
}

func toMovieEntries(movies []*streamly.Movie) []MovieEntry {
	entries := make([]MovieEntry, 0, len(movies))
	for _, m := range movies {
		entries = append(entries, MovieEntry{
			ID:        m.ID,
			Title:     m.Title,
			Genres:    m.Genres,
			Rating:    m.Rating,
			Year:      m.ReleaseYear,
			IsPremium: m.IsPremium,
		})
	}
	return entries
}

// errNotSignedIn is returned by tools that need a session
var errNotSignedIn = fmt.Errorf("not signed in: run `streamly login --remember` or set STREAMLY_IDENTIFIER and STREAMLY_PASSWORD")

// toolError keeps transport details out of tool results
func toolError(action string, err error) error {
	return fmt.Errorf("%s: %s", action, streamly.FriendlyMessage(err))
}

// SearchMovies tool - searches the movie catalog
type SearchMoviesInput struct {
	Query string `json:"query" jsonschema:"Search text matched against title, director and cast"`
	Page  int    `json:"page,omitempty" jsonschema:"Page number starting at 1 (optional)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Results per page (default: 20)"`
}

type SearchMoviesOutput struct {
	Movies []MovieEntry `json:"movies" jsonschema:"Matching movies"`
	Total  int          `json:"total" jsonschema:"Total number of matches"`
	Page   int          `json:"page" jsonschema:"Current page"`
	Pages  int          `json:"pages" jsonschema:"Number of pages"`
}

func (t *streamlyTools) SearchMovies(ctx context.Context, req *mcp.CallToolRequest, input SearchMoviesInput) (*mcp.CallToolResult, SearchMoviesOutput, error) {
	if input.Query == "" {
		return nil, SearchMoviesOutput{}, fmt.Errorf("query is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := t.client.Movies.Search(ctx, input.Query, &streamly.PageQuery{Page: input.Page, Limit: limit})
	if err != nil {
		return nil, SearchMoviesOutput{}, toolError("failed to search movies", err)
	}

	return nil, SearchMoviesOutput{
		Movies: toMovieEntries(result.Movies),
		Total:  result.Pagination.Total,
		Page:   result.Pagination.Page,
		Pages:  result.Pagination.Pages(),
	}, nil
}

// GetTrendingMovies tool - lists trending movies
type GetTrendingMoviesInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of movies (default: 10)"`
}

type GetTrendingMoviesOutput struct {
	Movies []MovieEntry `json:"movies" jsonschema:"Trending movies"`
	Count  int          `json:"count" jsonschema:"Number of movies returned"`
}

func (t *streamlyTools) GetTrendingMovies(ctx context.Context, req *mcp.CallToolRequest, input GetTrendingMoviesInput) (*mcp.CallToolResult, GetTrendingMoviesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	movies, err := t.client.Movies.Trending(ctx, limit)
	if err != nil {
		return nil, GetTrendingMoviesOutput{}, toolError("failed to fetch trending movies", err)
	}

	entries := toMovieEntries(movies)
	return nil, GetTrendingMoviesOutput{Movies: entries, Count: len(entries)}, nil
}

// GetMovie tool - fetches one movie
type GetMovieInput struct {
	ID string `json:"id" jsonschema:"Movie ID"`
}

type GetMovieOutput struct {
	Movie       MovieEntry `json:"movie" jsonschema:"Summary of the movie"`
	Description string     `json:"description,omitempty" jsonschema:"Plot summary"`
	Director    string     `json:"director,omitempty" jsonschema:"Director"`
	Cast        []string   `json:"cast,omitempty" jsonschema:"Main cast"`
	Duration    int        `json:"duration,omitempty" jsonschema:"Runtime in minutes"`
	Views       int        `json:"views" jsonschema:"Total views"`
	Comments    int        `json:"comments" jsonschema:"Total comments"`
}

func (t *streamlyTools) GetMovie(ctx context.Context, req *mcp.CallToolRequest, input GetMovieInput) (*mcp.CallToolResult, GetMovieOutput, error) {
	movie, err := t.client.Movies.Get(ctx, input.ID)
	if err != nil {
		return nil, GetMovieOutput{}, toolError("failed to fetch movie", err)
	}

	views := movie.TotalViews
	if views == 0 {
		views = movie.ViewCount
	}

	return nil, GetMovieOutput{
		Movie:       toMovieEntries([]*streamly.Movie{&movie.Movie})[0],
		Description: movie.Description,
		Director:    movie.Director,
		Cast:        movie.Cast,
		Duration:    movie.Duration,
		Views:       views,
		Comments:    movie.TotalComments,
	}, nil
}

// ListBooks tool - lists the book catalog
type ListBooksInput struct {
	Genre string `json:"genre,omitempty" jsonschema:"Only books in this genre (optional)"`
	Page  int    `json:"page,omitempty" jsonschema:"Page number starting at 1 (optional)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Books per page (default: 20)"`
}

type BookEntry struct {
	ID       string   `json:"id" jsonschema:"Book ID"`
	Title    string   `json:"title" jsonschema:"Book title"`
	Author   string   `json:"author,omitempty" jsonschema:"Author"`
	Genres   []string `json:"genres,omitempty" jsonschema:"Genres"`
	Chapters int      `json:"chapters" jsonschema:"Number of chapters"`
}

type ListBooksOutput struct {
	Books []BookEntry `json:"books" jsonschema:"Books on this page"`
	Total int         `json:"total" jsonschema:"Total number of books"`
	Pages int         `json:"pages" jsonschema:"Number of pages"`
}

func (t *streamlyTools) ListBooks(ctx context.Context, req *mcp.CallToolRequest, input ListBooksInput) (*mcp.CallToolResult, ListBooksOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := t.client.Books.List(ctx, &streamly.BookQuery{Page: input.Page, Limit: limit, Genre: input.Genre})
	if err != nil {
		return nil, ListBooksOutput{}, toolError("failed to list books", err)
	}

	books := make([]BookEntry, 0, len(result.Books))
	for _, b := range result.Books {
		books = append(books, BookEntry{
			ID:       b.ID,
			Title:    b.Title,
			Author:   b.Author,
			Genres:   b.Genres,
			Chapters: b.TotalChapters,
		})
	}

	return nil, ListBooksOutput{
		Books: books,
		Total: result.Pagination.Total,
		Pages: result.Pagination.Pages(),
	}, nil
}

// ListCollections tool - lists the user's collections
type ListCollectionsInput struct{}

type CollectionEntry struct {
	ID      string   `json:"id" jsonschema:"Collection ID"`
	Name    string   `json:"name" jsonschema:"Collection name"`
	Privacy string   `json:"privacy" jsonschema:"public or private"`
	Items   []string `json:"items" jsonschema:"Titles of the movies and books in the collection"`
}

type ListCollectionsOutput struct {
	Collections []CollectionEntry `json:"collections" jsonschema:"The user's collections"`
	Count       int               `json:"count" jsonschema:"Number of collections"`
}

func (t *streamlyTools) ListCollections(ctx context.Context, req *mcp.CallToolRequest, input ListCollectionsInput) (*mcp.CallToolResult, ListCollectionsOutput, error) {
	if !t.client.Auth.IsAuthenticated(ctx) {
		return nil, ListCollectionsOutput{}, errNotSignedIn
	}

	collections, err := t.client.Collections.List(ctx)
	if err != nil {
		return nil, ListCollectionsOutput{}, toolError("failed to list collections", err)
	}

	entries := make([]CollectionEntry, 0, len(collections))
	for _, c := range collections {
		titles := make([]string, 0, len(c.Items))
		for _, item := range c.Items {
			titles = append(titles, item.Title)
		}
		entries = append(entries, CollectionEntry{
			ID:      c.ID,
			Name:    c.Name,
			Privacy: string(c.Privacy),
			Items:   titles,
		})
	}

	return nil, ListCollectionsOutput{Collections: entries, Count: len(entries)}, nil
}

// GetUnreadNotifications tool - unread count plus the latest notifications
type GetUnreadNotificationsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of recent notifications (default: 10)"`
}

type NotificationEntry struct {
	ID      string `json:"id" jsonschema:"Notification ID"`
	Type    string `json:"type" jsonschema:"Notification category"`
	Title   string `json:"title" jsonschema:"Title"`
	Message string `json:"message" jsonschema:"Body text"`
	Read    bool   `json:"read" jsonschema:"Whether it has been read"`
}

type GetUnreadNotificationsOutput struct {
	Unread        int                 `json:"unread" jsonschema:"Number of unread notifications"`
	Notifications []NotificationEntry `json:"notifications" jsonschema:"Most recent notifications"`
}

func (t *streamlyTools) GetUnreadNotifications(ctx context.Context, req *mcp.CallToolRequest, input GetUnreadNotificationsInput) (*mcp.CallToolResult, GetUnreadNotificationsOutput, error) {
	if !t.client.Auth.IsAuthenticated(ctx) {
		return nil, GetUnreadNotificationsOutput{}, errNotSignedIn
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	count, err := t.client.Notifications.UnreadCount(ctx)
	if err != nil {
		return nil, GetUnreadNotificationsOutput{}, toolError("failed to fetch unread count", err)
	}

	list, err := t.client.Notifications.List(ctx, &streamly.PageQuery{Page: 1, Limit: limit})
	if err != nil {
		return nil, GetUnreadNotificationsOutput{}, toolError("failed to fetch notifications", err)
	}

	entries := make([]NotificationEntry, 0, len(list.Notifications))
	for _, n := range list.Notifications {
		entries = append(entries, NotificationEntry{
			ID:      n.ID,
			Type:    string(n.Type),
			Title:   n.Title,
			Message: n.Message,
			Read:    n.Read,
		})
	}

	return nil, GetUnreadNotificationsOutput{Unread: count, Notifications: entries}, nil
}
