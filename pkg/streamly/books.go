package streamly

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

const booksPath = "/api/books"

// bookService implements the BookService interface
type bookService struct {
	client *Client
}

// List retrieves a filtered page of books
func (s *bookService) List(ctx context.Context, query *BookQuery) (*BookList, error) {
	var result BookList
	if err := s.client.GetWithRetry(ctx, ServiceBook, booksPath, &RequestConfig{Params: query.values()}, &result, nil); err != nil {
		return nil, errors.Wrap(err, "failed to list books")
	}
	return &result, nil
}

// Get retrieves a book with its chapter index
func (s *bookService) Get(ctx context.Context, bookID string) (*Book, error) {
	if bookID == "" {
		return nil, &Error{Kind: KindValidation, Message: "book id is required"}
	}
	var book Book
	if err := s.client.GetWithRetry(ctx, ServiceBook, s.bookPath(bookID), nil, &book, nil); err != nil {
		return nil, errors.Wrap(err, "failed to get book")
	}
	return &book, nil
}

// Chapter retrieves the text of one chapter
func (s *bookService) Chapter(ctx context.Context, bookID string, number int) (*ChapterPage, error) {
	if number < 1 {
		return nil, &Error{Kind: KindValidation, Message: "chapter number must be at least 1"}
	}
	var page ChapterPage
	path := s.bookPath(bookID) + "/chapters/" + strconv.Itoa(number)
	if err := s.client.Get(ctx, ServiceBook, path, nil, &page); err != nil {
		return nil, errors.Wrap(err, "failed to get chapter")
	}
	return &page, nil
}

// Search finds books by title or author
func (s *bookService) Search(ctx context.Context, q string, page *PageQuery) (*BookList, error) {
	params := page.values()
	params.Set("q", q)

	var result BookList
	if err := s.client.Get(ctx, ServiceBook, booksPath+"/search", &RequestConfig{Params: params}, &result); err != nil {
		return nil, errors.Wrap(err, "failed to search books")
	}
	return &result, nil
}

// Progress retrieves the saved reading position
func (s *bookService) Progress(ctx context.Context, bookID string) (*ReadingPointer, error) {
	var pointer *ReadingPointer
	if err := s.client.Get(ctx, ServiceBook, s.bookPath(bookID)+"/progress", nil, &pointer); err != nil {
		return nil, errors.Wrap(err, "failed to get reading progress")
	}
	return pointer, nil
}

// SaveProgress stores the current chapter
func (s *bookService) SaveProgress(ctx context.Context, bookID string, chapter int) (*ReadingPointer, error) {
	if chapter < 1 {
		return nil, &Error{Kind: KindValidation, Message: "chapter number must be at least 1"}
	}
	var pointer ReadingPointer
	body := map[string]int{"currentChapter": chapter}
	if err := s.client.Put(ctx, ServiceBook, s.bookPath(bookID)+"/progress", body, nil, &pointer); err != nil {
		return nil, errors.Wrap(err, "failed to save reading progress")
	}
	if pointer.BookID == "" {
		pointer.BookID = bookID
	}
	return &pointer, nil
}

// ContinueReading retrieves partly read books
func (s *bookService) ContinueReading(ctx context.Context) ([]*Book, error) {
	var result struct {
		Books []*Book `json:"books"`
	}
	if err := s.client.Get(ctx, ServiceBook, booksPath+"/continue-reading", nil, &result); err != nil {
		return nil, errors.Wrap(err, "failed to get continue reading")
	}
	return result.Books, nil
}

// ReadHistory retrieves the reading position of every started book
func (s *bookService) ReadHistory(ctx context.Context) ([]*ReadingPointer, error) {
	var history []*ReadingPointer
	if err := s.client.Get(ctx, ServiceBook, booksPath+"/read-history", nil, &history); err != nil {
		return nil, errors.Wrap(err, "failed to get read history")
	}
	return history, nil
}

func (s *bookService) bookPath(bookID string) string {
	return booksPath + "/" + url.PathEscape(bookID)
}
