package streamly

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
)

const collectionsPath = "/api/collections"

// collectionService implements the CollectionService interface
type collectionService struct {
	client *Client
}

type collectionsResult struct {
	Collections []*Collection `json:"collections"`
}

// List retrieves the signed-in user's collections
func (s *collectionService) List(ctx context.Context) ([]*Collection, error) {
	var result collectionsResult
	if err := s.client.Get(ctx, ServiceCollection, collectionsPath, nil, &result); err != nil {
		return nil, errors.Wrap(err, "failed to list collections")
	}
	return result.Collections, nil
}

// Get retrieves a collection with its items
func (s *collectionService) Get(ctx context.Context, collectionID string) (*Collection, error) {
	var collection Collection
	if err := s.client.Get(ctx, ServiceCollection, s.path(collectionID), nil, &collection); err != nil {
		return nil, errors.Wrap(err, "failed to get collection")
	}
	return &collection, nil
}

// Create creates an empty collection
func (s *collectionService) Create(ctx context.Context, input *CollectionInput) (*Collection, error) {
	if input == nil || input.Name == "" {
		return nil, &Error{Kind: KindValidation, Message: "collection name is required"}
	}
	if input.Privacy == "" {
		copied := *input
		copied.Privacy = PrivacyPrivate
		input = &copied
	}
	var collection Collection
	if err := s.client.Post(ctx, ServiceCollection, collectionsPath, input, nil, &collection); err != nil {
		return nil, errors.Wrap(err, "failed to create collection")
	}
	return &collection, nil
}

// Update renames a collection or changes its privacy
func (s *collectionService) Update(ctx context.Context, collectionID string, input *CollectionInput) (*Collection, error) {
	var collection Collection
	if err := s.client.Put(ctx, ServiceCollection, s.path(collectionID), input, nil, &collection); err != nil {
		return nil, errors.Wrap(err, "failed to update collection")
	}
	return &collection, nil
}

// Delete removes a collection
func (s *collectionService) Delete(ctx context.Context, collectionID string) error {
	if err := s.client.Delete(ctx, ServiceCollection, s.path(collectionID), nil, nil); err != nil {
		return errors.Wrap(err, "failed to delete collection")
	}
	return nil
}

// AddItem adds a movie or book to a collection
func (s *collectionService) AddItem(ctx context.Context, collectionID string, item *CollectionItemInput) (*Collection, error) {
	if item == nil || item.ContentID == "" {
		return nil, &Error{Kind: KindValidation, Message: "content id is required"}
	}
	var collection Collection
	if err := s.client.Post(ctx, ServiceCollection, s.path(collectionID)+"/items", item, nil, &collection); err != nil {
		return nil, errors.Wrap(err, "failed to add collection item")
	}
	return &collection, nil
}

// RemoveItem removes content from a collection
func (s *collectionService) RemoveItem(ctx context.Context, collectionID, contentID string) (*Collection, error) {
	var collection Collection
	path := s.path(collectionID) + "/items/" + url.PathEscape(contentID)
	if err := s.client.Delete(ctx, ServiceCollection, path, nil, &collection); err != nil {
		return nil, errors.Wrap(err, "failed to remove collection item")
	}
	return &collection, nil
}

// Public browses shared collections
func (s *collectionService) Public(ctx context.Context, page *PageQuery) (*CollectionList, error) {
	var result CollectionList
	cfg := &RequestConfig{Params: page.values()}
	if err := s.client.GetWithRetry(ctx, ServiceCollection, collectionsPath+"/public/browse", cfg, &result, nil); err != nil {
		return nil, errors.Wrap(err, "failed to browse public collections")
	}
	return &result, nil
}

// Search matches collection names and descriptions
func (s *collectionService) Search(ctx context.Context, q string) ([]*Collection, error) {
	var result collectionsResult
	cfg := &RequestConfig{Params: url.Values{"q": {q}}}
	if err := s.client.Get(ctx, ServiceCollection, collectionsPath+"/search/query", cfg, &result); err != nil {
		return nil, errors.Wrap(err, "failed to search collections")
	}
	return result.Collections, nil
}

func (s *collectionService) path(collectionID string) string {
	return collectionsPath + "/" + url.PathEscape(collectionID)
}
