package streamly

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pkg/errors"
)

// ratingService implements the RatingService interface. Each content type
// is rated on its own service.
type ratingService struct {
	client *Client
}

// Rate scores content from 1 to 5
func (s *ratingService) Rate(ctx context.Context, contentType ContentType, contentID string, rating int) (*RatingSummary, error) {
	if rating < 1 || rating > 5 {
		return nil, &Error{
			Kind:    KindValidation,
			Message: "rating must be between 1 and 5",
			Fields:  map[string][]string{"rating": {"Rating must be between 1 and 5"}},
		}
	}
	service, base, err := contentRoute(contentType)
	if err != nil {
		return nil, err
	}

	var summary RatingSummary
	path := base + "/" + url.PathEscape(contentID) + "/rate"
	if err := s.client.Post(ctx, service, path, map[string]int{"rating": rating}, nil, &summary); err != nil {
		return nil, errors.Wrap(err, "failed to rate content")
	}
	return &summary, nil
}

// Get returns the caller's rating, or nil
func (s *ratingService) Get(ctx context.Context, contentType ContentType, contentID string) (*Rating, error) {
	service, _, err := contentRoute(contentType)
	if err != nil {
		return nil, err
	}
	cfg := &RequestConfig{Params: url.Values{
		"contentType": {string(contentType)},
		"contentId":   {contentID},
	}}
	var rating *Rating
	if err := s.client.Get(ctx, service, "/api/ratings", cfg, &rating); err != nil {
		return nil, errors.Wrap(err, "failed to get rating")
	}
	return rating, nil
}

// Delete removes a rating
func (s *ratingService) Delete(ctx context.Context, contentType ContentType, ratingID string) error {
	service, _, err := contentRoute(contentType)
	if err != nil {
		return err
	}
	if err := s.client.Delete(ctx, service, "/api/ratings/"+url.PathEscape(ratingID), nil, nil); err != nil {
		return errors.Wrap(err, "failed to delete rating")
	}
	return nil
}

func contentRoute(contentType ContentType) (Service, string, error) {
	switch contentType {
	case ContentMovie:
		return ServiceMovie, moviesPath, nil
	case ContentBook:
		return ServiceBook, booksPath, nil
	}
	return "", "", &Error{Kind: KindValidation, Message: fmt.Sprintf("unknown content type %q", contentType)}
}
