package streamly

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const commentsPath = "/api/comments"

// commentService implements the CommentService interface. Comments for both
// movies and books are served by the movie service.
type commentService struct {
	client *Client
}

// List retrieves the comments on a piece of content
func (s *commentService) List(ctx context.Context, contentType ContentType, contentID string) ([]*Comment, error) {
	cfg := &RequestConfig{Params: url.Values{
		"contentType": {string(contentType)},
		"contentId":   {contentID},
	}}
	var comments []*Comment
	if err := s.client.Get(ctx, ServiceMovie, commentsPath, cfg, &comments); err != nil {
		return nil, errors.Wrap(err, "failed to list comments")
	}
	return comments, nil
}

// Create posts a comment
func (s *commentService) Create(ctx context.Context, input *CommentInput) (*Comment, error) {
	if input == nil || strings.TrimSpace(input.Text) == "" {
		return nil, &Error{Kind: KindValidation, Message: "comment text is required"}
	}
	var comment Comment
	if err := s.client.Post(ctx, ServiceMovie, commentsPath, input, nil, &comment); err != nil {
		return nil, errors.Wrap(err, "failed to create comment")
	}
	return &comment, nil
}

// Delete removes one of the caller's comments
func (s *commentService) Delete(ctx context.Context, commentID string) error {
	if err := s.client.Delete(ctx, ServiceMovie, commentsPath+"/"+url.PathEscape(commentID), nil, nil); err != nil {
		return errors.Wrap(err, "failed to delete comment")
	}
	return nil
}

// Report flags a comment for moderation
func (s *commentService) Report(ctx context.Context, commentID, reason string) error {
	body := map[string]string{"reason": reason}
	path := commentsPath + "/" + url.PathEscape(commentID) + "/report"
	if err := s.client.Post(ctx, ServiceMovie, path, body, nil, nil); err != nil {
		return errors.Wrap(err, "failed to report comment")
	}
	return nil
}
