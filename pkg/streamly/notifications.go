package streamly

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
)

const notificationsPath = "/api/notifications"

// notificationService implements the NotificationService interface
type notificationService struct {
	client *Client
}

// List retrieves a page of notifications, newest first
func (s *notificationService) List(ctx context.Context, page *PageQuery) (*NotificationList, error) {
	var result NotificationList
	if err := s.client.Get(ctx, ServiceNotification, notificationsPath, &RequestConfig{Params: page.values()}, &result); err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	return &result, nil
}

// UnreadCount returns the number of unread notifications
func (s *notificationService) UnreadCount(ctx context.Context) (int, error) {
	var result struct {
		Count int `json:"count"`
	}
	if err := s.client.Get(ctx, ServiceNotification, notificationsPath+"/unread/count", nil, &result); err != nil {
		return 0, errors.Wrap(err, "failed to get unread count")
	}
	return result.Count, nil
}

// MarkRead marks one notification read
func (s *notificationService) MarkRead(ctx context.Context, notificationID string) error {
	if err := s.client.Patch(ctx, ServiceNotification, s.path(notificationID)+"/read", nil, nil, nil); err != nil {
		return errors.Wrap(err, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead marks every notification read
func (s *notificationService) MarkAllRead(ctx context.Context) error {
	if err := s.client.Patch(ctx, ServiceNotification, notificationsPath+"/read-all", nil, nil, nil); err != nil {
		return errors.Wrap(err, "failed to mark notifications read")
	}
	return nil
}

// Delete removes one notification
func (s *notificationService) Delete(ctx context.Context, notificationID string) error {
	if err := s.client.Delete(ctx, ServiceNotification, s.path(notificationID), nil, nil); err != nil {
		return errors.Wrap(err, "failed to delete notification")
	}
	return nil
}

// ClearAll removes every notification
func (s *notificationService) ClearAll(ctx context.Context) error {
	if err := s.client.Delete(ctx, ServiceNotification, notificationsPath+"/clear-all", nil, nil); err != nil {
		return errors.Wrap(err, "failed to clear notifications")
	}
	return nil
}

// Preferences returns which categories are delivered
func (s *notificationService) Preferences(ctx context.Context) (*NotificationPreferences, error) {
	var prefs NotificationPreferences
	if err := s.client.Get(ctx, ServiceNotification, notificationsPath+"/preferences", nil, &prefs); err != nil {
		return nil, errors.Wrap(err, "failed to get notification preferences")
	}
	return &prefs, nil
}

// UpdatePreferences changes the categories set in prefs; nil fields are left alone
func (s *notificationService) UpdatePreferences(ctx context.Context, prefs *NotificationPreferences) (*NotificationPreferences, error) {
	var result NotificationPreferences
	if err := s.client.Patch(ctx, ServiceNotification, notificationsPath+"/preferences", prefs, nil, &result); err != nil {
		return nil, errors.Wrap(err, "failed to update notification preferences")
	}
	return &result, nil
}

// SendTest creates a notification for the caller
func (s *notificationService) SendTest(ctx context.Context, input *NotificationInput) (*Notification, error) {
	if input == nil {
		input = &NotificationInput{Type: NotificationSystem, Title: "Test", Message: "Test notification"}
	}
	var notification Notification
	if err := s.client.Post(ctx, ServiceNotification, notificationsPath+"/test", input, nil, &notification); err != nil {
		return nil, errors.Wrap(err, "failed to send test notification")
	}
	return &notification, nil
}

func (s *notificationService) path(notificationID string) string {
	return notificationsPath + "/" + url.PathEscape(notificationID)
}
