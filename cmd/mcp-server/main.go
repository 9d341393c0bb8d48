package main

import (
	"context"
	"log"
	"os"

	"github.com/eshaffer321/streamly-go/pkg/streamly"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	ctx := context.Background()

	sessionFile := os.Getenv("STREAMLY_SESSION_FILE")
	if sessionFile == "" {
		var err error
		if sessionFile, err = streamly.DefaultSessionFile(); err != nil {
			log.Fatalf("failed to locate session file: %v", err)
		}
	}

	// Initialize Streamly client from STREAMLY_* variables
	client, err := streamly.NewClientFromEnv(&streamly.ClientOptions{
		PersistentStore: streamly.NewFileStore(sessionFile),
	})
	if err != nil {
		log.Fatalf("failed to initialize Streamly client: %v", err)
	}
	defer client.Close()

	if err := signIn(ctx, client); err != nil {
		log.Fatalf("failed to sign in: %v", streamly.FriendlyMessage(err))
	}

	impl := &mcp.Implementation{
		Name:    "streamly",
		Version: "1.0.0",
	}

	server := mcp.NewServer(impl, nil)

	registerTools(server, client)

	// Run server over stdio transport
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// signIn restores a saved session (shared with the streamly CLI) or logs in
// with STREAMLY_IDENTIFIER and STREAMLY_PASSWORD. Catalog tools work
// without a session.
func signIn(ctx context.Context, client *streamly.Client) error {
	if _, err := client.Auth.Rehydrate(ctx); err != nil {
		return err
	}
	if client.Auth.IsAuthenticated(ctx) {
		return nil
	}

	identifier := os.Getenv("STREAMLY_IDENTIFIER")
	password := os.Getenv("STREAMLY_PASSWORD")
	if identifier == "" || password == "" {
		return nil
	}
	_, err := client.Auth.Login(ctx, identifier, password, true)
	return err
}

func registerTools(server *mcp.Server, client *streamly.Client) {
	tools := &streamlyTools{client: client}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_movies",
		Description: "Search the movie catalog by title, director or cast. Returns matching movies with genres, rating and premium status.",
	}, tools.SearchMovies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_trending_movies",
		Description: "Get the currently trending movies, most watched first.",
	}, tools.GetTrendingMovies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_movie",
		Description: "Get full details for one movie by ID, including description, cast and view counts.",
	}, tools.GetMovie)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_books",
		Description: "List books with optional genre filter and paging. Returns title, author and chapter count.",
	}, tools.ListBooks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_collections",
		Description: "List the signed-in user's collections of movies and books. Requires a saved session.",
	}, tools.ListCollections)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_unread_notifications",
		Description: "Get the unread notification count and the latest notifications. Requires a saved session.",
	}, tools.GetUnreadNotifications)
}
