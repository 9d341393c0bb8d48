package streamly

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

const moviesPath = "/api/movies"

// movieService implements the MovieService interface
type movieService struct {
	client *Client
}

// List retrieves a filtered page of movies
func (s *movieService) List(ctx context.Context, query *MovieQuery) (*MovieList, error) {
	var result MovieList
	if err := s.client.GetWithRetry(ctx, ServiceMovie, moviesPath, &RequestConfig{Params: query.values()}, &result, nil); err != nil {
		return nil, errors.Wrap(err, "failed to list movies")
	}
	return &result, nil
}

// Get retrieves a single movie
func (s *movieService) Get(ctx context.Context, movieID string) (*MovieDetail, error) {
	if movieID == "" {
		return nil, &Error{Kind: KindValidation, Message: "movie id is required"}
	}
	var movie MovieDetail
	if err := s.client.GetWithRetry(ctx, ServiceMovie, moviesPath+"/"+url.PathEscape(movieID), nil, &movie, nil); err != nil {
		return nil, errors.Wrap(err, "failed to get movie")
	}
	return &movie, nil
}

// Search finds movies by title, director or cast
func (s *movieService) Search(ctx context.Context, q string, page *PageQuery) (*MovieList, error) {
	params := page.values()
	params.Set("q", q)

	var result MovieList
	if err := s.client.Get(ctx, ServiceMovie, moviesPath+"/search", &RequestConfig{Params: params}, &result); err != nil {
		return nil, errors.Wrap(err, "failed to search movies")
	}
	return &result, nil
}

// Trending retrieves the most watched movies
func (s *movieService) Trending(ctx context.Context, limit int) ([]*Movie, error) {
	var result struct {
		Movies []*Movie `json:"movies"`
	}
	if err := s.client.GetWithRetry(ctx, ServiceMovie, moviesPath+"/trending", limitConfig(limit), &result, nil); err != nil {
		return nil, errors.Wrap(err, "failed to get trending movies")
	}
	return result.Movies, nil
}

// Featured retrieves editor picks
func (s *movieService) Featured(ctx context.Context, limit int) ([]*Movie, error) {
	return s.list(ctx, moviesPath+"/featured", limitConfig(limit), "featured")
}

// Recommended retrieves picks for the signed-in user
func (s *movieService) Recommended(ctx context.Context, limit int) ([]*Movie, error) {
	return s.list(ctx, moviesPath+"/recommended", limitConfig(limit), "recommended")
}

// Random retrieves a random selection
func (s *movieService) Random(ctx context.Context, limit int) ([]*Movie, error) {
	var movies []*Movie
	if err := s.client.Get(ctx, ServiceMovie, moviesPath+"/random", limitConfig(limit), &movies); err != nil {
		return nil, errors.Wrap(err, "failed to get random movies")
	}
	return movies, nil
}

// Related retrieves movies similar to movieID
func (s *movieService) Related(ctx context.Context, movieID string, limit int) ([]*Movie, error) {
	return s.list(ctx, moviesPath+"/"+url.PathEscape(movieID)+"/related", limitConfig(limit), "related")
}

// ByGenre retrieves a page of movies in genre
func (s *movieService) ByGenre(ctx context.Context, genre string, page *PageQuery) (*MovieList, error) {
	var result MovieList
	path := moviesPath + "/genre/" + url.PathEscape(genre)
	if err := s.client.GetWithRetry(ctx, ServiceMovie, path, &RequestConfig{Params: page.values()}, &result, nil); err != nil {
		return nil, errors.Wrap(err, "failed to get movies by genre")
	}
	return &result, nil
}

// Genres lists every genre in the catalog
func (s *movieService) Genres(ctx context.Context) ([]string, error) {
	var genres []string
	if err := s.client.GetWithRetry(ctx, ServiceMovie, moviesPath+"/genres", nil, &genres, nil); err != nil {
		return nil, errors.Wrap(err, "failed to get genres")
	}
	return genres, nil
}

// MovieOfTheWeek retrieves the weekly highlight
func (s *movieService) MovieOfTheWeek(ctx context.Context) (*Movie, error) {
	var movie Movie
	if err := s.client.GetWithRetry(ctx, ServiceMovie, moviesPath+"/special/movie-of-week", nil, &movie, nil); err != nil {
		return nil, errors.Wrap(err, "failed to get movie of the week")
	}
	return &movie, nil
}

// ContinueWatching retrieves partly watched movies
func (s *movieService) ContinueWatching(ctx context.Context) ([]*Movie, error) {
	var result struct {
		Movies []*Movie `json:"movies"`
	}
	if err := s.client.Get(ctx, ServiceMovie, moviesPath+"/continue-watching", nil, &result); err != nil {
		return nil, errors.Wrap(err, "failed to get continue watching")
	}
	return result.Movies, nil
}

// WatchHistory retrieves playback progress for every watched movie
func (s *movieService) WatchHistory(ctx context.Context) ([]*WatchProgress, error) {
	var history []*WatchProgress
	if err := s.client.Get(ctx, ServiceMovie, moviesPath+"/watch-history", nil, &history); err != nil {
		return nil, errors.Wrap(err, "failed to get watch history")
	}
	return history, nil
}

// Progress retrieves the saved playback position
func (s *movieService) Progress(ctx context.Context, movieID string) (*WatchProgress, error) {
	var progress *WatchProgress
	if err := s.client.Get(ctx, ServiceMovie, s.progressPath(movieID), nil, &progress); err != nil {
		return nil, errors.Wrap(err, "failed to get watch progress")
	}
	return progress, nil
}

// SaveProgress stores the playback position
func (s *movieService) SaveProgress(ctx context.Context, movieID string, watchedSeconds, totalSeconds float64) (*WatchProgress, error) {
	if watchedSeconds < 0 || totalSeconds < 0 {
		return nil, &Error{Kind: KindValidation, Message: "progress cannot be negative"}
	}
	body := map[string]float64{
		"watchedSeconds": watchedSeconds,
		"totalSeconds":   totalSeconds,
	}
	var progress WatchProgress
	if err := s.client.Put(ctx, ServiceMovie, s.progressPath(movieID), body, nil, &progress); err != nil {
		return nil, errors.Wrap(err, "failed to save watch progress")
	}
	return &progress, nil
}

// MarkWatched records a completed viewing
func (s *movieService) MarkWatched(ctx context.Context, movieID string) error {
	if err := s.client.Post(ctx, ServiceMovie, moviesPath+"/"+url.PathEscape(movieID)+"/watched", nil, nil, nil); err != nil {
		return errors.Wrap(err, "failed to mark movie watched")
	}
	return nil
}

// Create adds a movie (admin)
func (s *movieService) Create(ctx context.Context, input *MovieInput) (*Movie, error) {
	if input == nil || input.Title == "" {
		return nil, &Error{Kind: KindValidation, Message: "title is required"}
	}
	var movie Movie
	if err := s.client.Post(ctx, ServiceMovie, moviesPath, input, nil, &movie); err != nil {
		return nil, errors.Wrap(err, "failed to create movie")
	}
	return &movie, nil
}

// Update changes a movie (admin)
func (s *movieService) Update(ctx context.Context, movieID string, input *MovieInput) (*Movie, error) {
	var movie Movie
	if err := s.client.Put(ctx, ServiceMovie, moviesPath+"/"+url.PathEscape(movieID), input, nil, &movie); err != nil {
		return nil, errors.Wrap(err, "failed to update movie")
	}
	return &movie, nil
}

// Delete removes a movie (admin)
func (s *movieService) Delete(ctx context.Context, movieID string) error {
	if err := s.client.Delete(ctx, ServiceMovie, moviesPath+"/"+url.PathEscape(movieID), nil, nil); err != nil {
		return errors.Wrap(err, "failed to delete movie")
	}
	return nil
}

func (s *movieService) list(ctx context.Context, path string, cfg *RequestConfig, what string) ([]*Movie, error) {
	var movies []*Movie
	if err := s.client.GetWithRetry(ctx, ServiceMovie, path, cfg, &movies, nil); err != nil {
		return nil, errors.Wrapf(err, "failed to get %s movies", what)
	}
	return movies, nil
}

func (s *movieService) progressPath(movieID string) string {
	return moviesPath + "/" + url.PathEscape(movieID) + "/progress"
}

// limitConfig builds a ?limit= query; zero leaves the server default
func limitConfig(limit int) *RequestConfig {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return &RequestConfig{Params: params}
}
