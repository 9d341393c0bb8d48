package streamly

import (
	"net/url"
	"strconv"

	"github.com/eshaffer321/streamly-go/internal/types"
)

// Re-exported core types
type (
	UserProfile = types.UserProfile
	Session     = types.Session
	Role        = types.Role
	Wallet      = types.Wallet
	Timestamp   = types.Timestamp
	Service     = types.Service
	RetryConfig = types.RetryConfig
	Hooks       = types.Hooks
)

const (
	RoleUser      = types.RoleUser
	RoleAdmin     = types.RoleAdmin
	RoleModerator = types.RoleModerator

	ServiceAuth         = types.ServiceAuth
	ServiceUser         = types.ServiceUser
	ServiceMovie        = types.ServiceMovie
	ServiceBook         = types.ServiceBook
	ServiceCollection   = types.ServiceCollection
	ServiceNotification = types.ServiceNotification
)

// ContentType is the kind of content a comment, rating or collection item refers to
type ContentType string

const (
	ContentMovie ContentType = "movie"
	ContentBook  ContentType = "book"
)

// Pagination is the page block list endpoints return
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages,omitempty"`
}

// Pages returns TotalPages, deriving it from Total and Limit when the server omits it
func (p Pagination) Pages() int {
	if p.TotalPages > 0 {
		return p.TotalPages
	}
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// PageQuery selects a page of a list
type PageQuery struct {
	Page  int
	Limit int
}

func (q *PageQuery) values() url.Values {
	v := url.Values{}
	if q == nil {
		return v
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Movie represents a catalog movie
type Movie struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Subtitle     string   `json:"subtitle,omitempty"`
	Description  string   `json:"description,omitempty"`
	Image        string   `json:"image,omitempty"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	BannerURL    string   `json:"bannerUrl,omitempty"`
	VideoURL     string   `json:"videoUrl,omitempty"`
	Director     string   `json:"director,omitempty"`
	Cast         []string `json:"cast,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Type         string   `json:"type,omitempty"`
	Rating       float64  `json:"rating"`
	TotalRatings int      `json:"totalRatings"`
	ViewCount    int      `json:"viewCount"`
	IsPremium    bool     `json:"isPremium"`
	IsFeatured   bool     `json:"isFeatured"`
	Duration     int      `json:"duration,omitempty"`
	ReleaseYear  int      `json:"releaseYear,omitempty"`
}

// MovieDetail is the full movie record
type MovieDetail struct {
	Movie
	Country       string `json:"country,omitempty"`
	Language      string `json:"language,omitempty"`
	TotalViews    int    `json:"totalViews"`
	TotalComments int    `json:"totalComments"`
}

// MovieList is a page of movies
type MovieList struct {
	Movies     []*Movie   `json:"movies"`
	Pagination Pagination `json:"pagination"`
}

// MovieQuery filters a movie listing
type MovieQuery struct {
	Page       int
	Limit      int
	Genre      string
	Year       int
	Search     string
	Type       string
	IsPremium  *bool
	IsFeatured *bool
	// SortBy is viewCount, rating or releaseYear
	SortBy string
	// Order is asc or desc
	Order string
}

func (q *MovieQuery) values() url.Values {
	if q == nil {
		return url.Values{}
	}
	v := (&PageQuery{Page: q.Page, Limit: q.Limit}).values()
	setString(v, "genre", q.Genre)
	setString(v, "search", q.Search)
	setString(v, "type", q.Type)
	setString(v, "sortBy", q.SortBy)
	setString(v, "order", q.Order)
	if q.Year > 0 {
		v.Set("year", strconv.Itoa(q.Year))
	}
	if q.IsPremium != nil {
		v.Set("isPremium", strconv.FormatBool(*q.IsPremium))
	}
	if q.IsFeatured != nil {
		v.Set("isFeatured", strconv.FormatBool(*q.IsFeatured))
	}
	return v
}

// MovieInput creates or updates a movie (admin)
type MovieInput struct {
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	VideoURL     string   `json:"videoUrl,omitempty"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	BannerURL    string   `json:"bannerUrl,omitempty"`
	Director     string   `json:"director,omitempty"`
	Cast         []string `json:"cast,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	IsPremium    *bool    `json:"isPremium,omitempty"`
	IsFeatured   *bool    `json:"isFeatured,omitempty"`
	Duration     int      `json:"duration,omitempty"`
	ReleaseYear  int      `json:"releaseYear,omitempty"`
}

// WatchProgress is a user's position in a movie
type WatchProgress struct {
	MovieID       string     `json:"movieId"`
	CurrentTime   float64    `json:"currentTime"`
	Duration      float64    `json:"duration"`
	Percentage    float64    `json:"percentage"`
	IsCompleted   bool       `json:"isCompleted"`
	LastWatchedAt *Timestamp `json:"lastWatchedAt,omitempty"`
}

// RatingSummary is returned after rating a movie or book
type RatingSummary struct {
	UserRating   float64 `json:"userRating"`
	AverageScore float64 `json:"bookAvgRating,omitempty"`
	TotalRatings int     `json:"totalRatings"`
}

// MovieRef is the short movie reference embedded in other records
type MovieRef struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Book represents a catalog book
type Book struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Author        string          `json:"author,omitempty"`
	Description   string          `json:"description,omitempty"`
	Thumbnail     string          `json:"thumbnail,omitempty"`
	Genres        []string        `json:"genres,omitempty"`
	PublishYear   int             `json:"publishYear,omitempty"`
	TotalChapters int             `json:"totalChapters"`
	AdaptedMovie  *MovieRef       `json:"adaptedMovie,omitempty"`
	Chapters      []*Chapter      `json:"chapters,omitempty"`
	UserProgress  *ReadingPointer `json:"userProgress,omitempty"`
}

// Chapter is a book chapter; Content is only filled when reading it
type Chapter struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	WordCount int    `json:"wordCount"`
	Content   string `json:"content,omitempty"`
}

// ChapterPage is a chapter with navigation to its neighbours
type ChapterPage struct {
	BookID     string                 `json:"bookId"`
	Chapter    Chapter                `json:"chapter"`
	Navigation map[string]interface{} `json:"navigation,omitempty"`
}

// ReadingPointer is where a user stopped in a book
type ReadingPointer struct {
	BookID         string     `json:"bookId,omitempty"`
	CurrentChapter int        `json:"currentChapter"`
	Percentage     float64    `json:"percentage,omitempty"`
	LastReadAt     *Timestamp `json:"lastReadAt,omitempty"`
}

// BookList is a page of books
type BookList struct {
	Books      []*Book    `json:"books"`
	Pagination Pagination `json:"pagination"`
}

// BookQuery filters a book listing
type BookQuery struct {
	Page  int
	Limit int
	Genre string
	// SortBy is title, publishYear or rating
	SortBy string
}

func (q *BookQuery) values() url.Values {
	if q == nil {
		return url.Values{}
	}
	v := (&PageQuery{Page: q.Page, Limit: q.Limit}).values()
	setString(v, "genre", q.Genre)
	setString(v, "sortBy", q.SortBy)
	return v
}

// CollectionPrivacy is public or private
type CollectionPrivacy string

const (
	PrivacyPublic  CollectionPrivacy = "public"
	PrivacyPrivate CollectionPrivacy = "private"
)

// CollectionItem is an entry in a collection
type CollectionItem struct {
	ContentID   string      `json:"contentId"`
	ContentType ContentType `json:"contentType"`
	Title       string      `json:"title"`
	Thumbnail   string      `json:"thumbnail,omitempty"`
	AddedAt     *Timestamp  `json:"addedAt,omitempty"`
}

// CollectionOwner is the owner block of a public collection
type CollectionOwner struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Collection is a user's list of movies and books
type Collection struct {
	ID          string            `json:"_id"`
	UserID      string            `json:"userId"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Privacy     CollectionPrivacy `json:"privacy"`
	Items       []*CollectionItem `json:"items"`
	ItemCount   int               `json:"itemCount"`
	Owner       *CollectionOwner  `json:"owner,omitempty"`
	CreatedAt   *Timestamp        `json:"createdAt,omitempty"`
	UpdatedAt   *Timestamp        `json:"updatedAt,omitempty"`
}

// CollectionList is a page of public collections
type CollectionList struct {
	Collections []*Collection `json:"collections"`
	Total       int           `json:"total"`
}

// CollectionInput creates or updates a collection
type CollectionInput struct {
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Privacy     CollectionPrivacy `json:"privacy,omitempty"`
}

// CollectionItemInput adds content to a collection
type CollectionItemInput struct {
	ContentID   string      `json:"contentId"`
	ContentType ContentType `json:"contentType"`
	Title       string      `json:"title"`
	Thumbnail   string      `json:"thumbnail,omitempty"`
}

// Comment is a user comment on a movie or book
type Comment struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	UserDetails struct {
		DisplayName string `json:"displayName"`
		Avatar      string `json:"avatar"`
	} `json:"userDetails"`
	ContentType ContentType `json:"contentType"`
	ContentID   string      `json:"contentId"`
	Text        string      `json:"text"`
	Status      string      `json:"status"`
	CreatedAt   *Timestamp  `json:"createdAt,omitempty"`
}

// CommentInput creates a comment
type CommentInput struct {
	ContentType ContentType `json:"contentType"`
	ContentID   string      `json:"contentId"`
	Text        string      `json:"text"`
}

// Rating is a user's score for a movie or book
type Rating struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	ContentType ContentType `json:"contentType"`
	ContentID   string      `json:"contentId"`
	Rating      int         `json:"rating"`
	CreatedAt   *Timestamp  `json:"createdAt,omitempty"`
}

// NotificationType categorises a notification
type NotificationType string

const (
	NotificationPurchase       NotificationType = "purchase"
	NotificationWallet         NotificationType = "wallet"
	NotificationNewContent     NotificationType = "new_content"
	NotificationRecommendation NotificationType = "recommendation"
	NotificationUpdate         NotificationType = "update"
	NotificationSystem         NotificationType = "system"
)

// Notification is an in-app notification
type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Read      bool                   `json:"read"`
	ActionURL string                 `json:"actionUrl,omitempty"`
	CreatedAt *Timestamp             `json:"createdAt,omitempty"`
	UpdatedAt *Timestamp             `json:"updatedAt,omitempty"`
	ExpiresAt *Timestamp             `json:"expiresAt,omitempty"`
}

// NotificationList is a page of notifications
type NotificationList struct {
	Notifications []*Notification `json:"notifications"`
	Total         int             `json:"total"`
}

// NotificationInput creates a test notification
type NotificationInput struct {
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	ActionURL string                 `json:"actionUrl,omitempty"`
}

// NotificationPreferences toggles notification categories
type NotificationPreferences struct {
	UserID                      string `json:"userId,omitempty"`
	PurchaseNotifications       *bool  `json:"purchaseNotifications,omitempty"`
	WalletNotifications         *bool  `json:"walletNotifications,omitempty"`
	NewContentNotifications     *bool  `json:"newContentNotifications,omitempty"`
	RecommendationNotifications *bool  `json:"recommendationNotifications,omitempty"`
	SystemNotifications         *bool  `json:"systemNotifications,omitempty"`
}

// ProfileUpdate changes profile fields
type ProfileUpdate struct {
	DisplayName string `json:"displayName,omitempty"`
	FullName    string `json:"fullName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Language    string `json:"language,omitempty"`
}

// UserSettings are the account notification and privacy toggles
type UserSettings struct {
	Notifications map[string]bool `json:"notifications,omitempty"`
	Privacy       map[string]bool `json:"privacy,omitempty"`
}

// WalletTransaction is an entry in the wallet ledger
type WalletTransaction struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Amount      float64    `json:"amount"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	CreatedAt   *Timestamp `json:"createdAt,omitempty"`
}

// WalletPage is the wallet balance with a page of transactions
type WalletPage struct {
	Balance        float64              `json:"balance"`
	TotalDeposited float64              `json:"totalDeposited"`
	TotalSpent     float64              `json:"totalSpent"`
	Transactions   []*WalletTransaction `json:"transactions"`
	Pagination     Pagination           `json:"pagination"`
}

// ViewHistoryEntry is a watched movie with progress
type ViewHistoryEntry struct {
	ID                  string     `json:"id"`
	Movie               *MovieRef  `json:"movie,omitempty"`
	WatchedSeconds      float64    `json:"watchedSeconds"`
	CompletedPercentage float64    `json:"completedPercentage"`
	ViewedAt            *Timestamp `json:"viewedAt,omitempty"`
}

// ViewHistory is a page of watched movies
type ViewHistory struct {
	History    []*ViewHistoryEntry `json:"history"`
	Pagination Pagination          `json:"pagination"`
}

func setString(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

// Bool returns a pointer to b, for optional filter fields
func Bool(b bool) *bool {
	return &b
}
