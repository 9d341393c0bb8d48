package streamly

import (
	"context"
)

// AuthService handles login, session lifecycle and account recovery
type AuthService interface {
	// Login authenticates and stores the session. rememberMe keeps it across restarts.
	Login(ctx context.Context, identifier, password string, rememberMe bool) (*Session, error)

	// Logout ends the session. Local state is cleared even if the server call fails.
	Logout(ctx context.Context) error

	// Rehydrate restores a stored session at startup, refreshing an expired token
	Rehydrate(ctx context.Context) (*Session, error)

	// Current returns the stored session, or nil
	Current(ctx context.Context) (*Session, error)

	IsAuthenticated(ctx context.Context) bool
	HasRole(ctx context.Context, role Role) bool
	IsAdminOrModerator(ctx context.Context) bool

	// UpdateUser replaces the stored user, keeping the token
	UpdateUser(ctx context.Context, user *UserProfile) error

	// RefreshIfNeeded returns a usable token, refreshing when it is near expiry
	RefreshIfNeeded(ctx context.Context) (string, error)

	// Register starts a sign-up; the server emails a one-time code
	Register(ctx context.Context, req *RegisterRequest) (*RegisterResult, error)

	// VerifyOTP completes a sign-up
	VerifyOTP(ctx context.Context, email, otp string) (string, error)

	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) (string, error)
}

// UserService handles the signed-in user's account
type UserService interface {
	// Profile fetches the profile and refreshes the stored user
	Profile(ctx context.Context) (*UserProfile, error)

	// UpdateProfile changes profile fields and refreshes the stored user
	UpdateProfile(ctx context.Context, update *ProfileUpdate) (*UserProfile, error)

	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	Settings(ctx context.Context) (*UserSettings, error)
	UpdateSettings(ctx context.Context, settings *UserSettings) (*UserSettings, error)

	// Wallet returns the balance and a page of transactions
	Wallet(ctx context.Context, page *PageQuery) (*WalletPage, error)

	ViewHistory(ctx context.Context, page *PageQuery) (*ViewHistory, error)
	ClearViewHistory(ctx context.Context) error

	// UpgradePremium buys premium for duration days
	UpgradePremium(ctx context.Context, duration int, amount float64) (*UserProfile, error)
}

// MovieService handles the movie catalog and playback progress
type MovieService interface {
	List(ctx context.Context, query *MovieQuery) (*MovieList, error)
	Get(ctx context.Context, movieID string) (*MovieDetail, error)
	Search(ctx context.Context, q string, page *PageQuery) (*MovieList, error)
	Trending(ctx context.Context, limit int) ([]*Movie, error)
	Featured(ctx context.Context, limit int) ([]*Movie, error)
	Recommended(ctx context.Context, limit int) ([]*Movie, error)
	Random(ctx context.Context, limit int) ([]*Movie, error)
	Related(ctx context.Context, movieID string, limit int) ([]*Movie, error)
	ByGenre(ctx context.Context, genre string, page *PageQuery) (*MovieList, error)
	Genres(ctx context.Context) ([]string, error)
	MovieOfTheWeek(ctx context.Context) (*Movie, error)
	ContinueWatching(ctx context.Context) ([]*Movie, error)
	WatchHistory(ctx context.Context) ([]*WatchProgress, error)

	// Progress returns the saved playback position, or nil
	Progress(ctx context.Context, movieID string) (*WatchProgress, error)
	SaveProgress(ctx context.Context, movieID string, watchedSeconds, totalSeconds float64) (*WatchProgress, error)
	MarkWatched(ctx context.Context, movieID string) error

	// Admin operations
	Create(ctx context.Context, input *MovieInput) (*Movie, error)
	Update(ctx context.Context, movieID string, input *MovieInput) (*Movie, error)
	Delete(ctx context.Context, movieID string) error
}

// BookService handles the book catalog and reading progress
type BookService interface {
	List(ctx context.Context, query *BookQuery) (*BookList, error)
	Get(ctx context.Context, bookID string) (*Book, error)
	Chapter(ctx context.Context, bookID string, number int) (*ChapterPage, error)
	Search(ctx context.Context, q string, page *PageQuery) (*BookList, error)

	// Progress returns the saved reading position, or nil
	Progress(ctx context.Context, bookID string) (*ReadingPointer, error)
	SaveProgress(ctx context.Context, bookID string, chapter int) (*ReadingPointer, error)
	ContinueReading(ctx context.Context) ([]*Book, error)
	ReadHistory(ctx context.Context) ([]*ReadingPointer, error)
}

// CollectionService handles user collections of movies and books
type CollectionService interface {
	List(ctx context.Context) ([]*Collection, error)
	Get(ctx context.Context, collectionID string) (*Collection, error)
	Create(ctx context.Context, input *CollectionInput) (*Collection, error)
	Update(ctx context.Context, collectionID string, input *CollectionInput) (*Collection, error)
	Delete(ctx context.Context, collectionID string) error
	AddItem(ctx context.Context, collectionID string, item *CollectionItemInput) (*Collection, error)
	RemoveItem(ctx context.Context, collectionID, contentID string) (*Collection, error)

	// Public browses collections other users shared
	Public(ctx context.Context, page *PageQuery) (*CollectionList, error)

	// Search matches collection names and descriptions
	Search(ctx context.Context, q string) ([]*Collection, error)
}

// CommentService handles comments on movies and books
type CommentService interface {
	List(ctx context.Context, contentType ContentType, contentID string) ([]*Comment, error)
	Create(ctx context.Context, input *CommentInput) (*Comment, error)
	Delete(ctx context.Context, commentID string) error
	Report(ctx context.Context, commentID, reason string) error
}

// RatingService handles 1-5 star ratings
type RatingService interface {
	Rate(ctx context.Context, contentType ContentType, contentID string, rating int) (*RatingSummary, error)

	// Get returns the caller's rating, or nil when they have not rated
	Get(ctx context.Context, contentType ContentType, contentID string) (*Rating, error)

	Delete(ctx context.Context, contentType ContentType, ratingID string) error
}

// NotificationService handles in-app notifications
type NotificationService interface {
	List(ctx context.Context, page *PageQuery) (*NotificationList, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, notificationID string) error
	ClearAll(ctx context.Context) error
	Preferences(ctx context.Context) (*NotificationPreferences, error)
	UpdatePreferences(ctx context.Context, prefs *NotificationPreferences) (*NotificationPreferences, error)

	// SendTest creates a notification for the caller
	SendTest(ctx context.Context, input *NotificationInput) (*Notification, error)
}
