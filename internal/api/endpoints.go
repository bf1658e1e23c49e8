package api

import (
	"context"
	"net/http"
	"time"
)

// Links

func (c *Client) GetLinks(ctx context.Context) ([]Record, error) {
	return c.list(ctx, "/links", "links")
}

func (c *Client) GetLink(ctx context.Context, id string) (Record, error) {
	return c.get(ctx, pathID("/links", id))
}

func (c *Client) DeleteLink(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, pathID("/links", id), nil, nil)
}

// ExpireLink sets the link expiry. A nil time removes it.
func (c *Client) ExpireLink(ctx context.Context, id string, at *time.Time) error {
	return c.do(ctx, http.MethodPatch, pathID("/links", id, "expire"), expiryBody(at), nil)
}

// QR codes

func (c *Client) GetQRCodes(ctx context.Context) ([]Record, error) {
	return c.list(ctx, "/qr-codes", "qr_codes")
}

func (c *Client) GetQRCode(ctx context.Context, id string) (Record, error) {
	return c.get(ctx, pathID("/qr-codes", id))
}

func (c *Client) DeleteQRCode(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, pathID("/qr-codes", id), nil, nil)
}

func (c *Client) ExpireQRCode(ctx context.Context, id string, at *time.Time) error {
	return c.do(ctx, http.MethodPatch, pathID("/qr-codes", id, "expire"), expiryBody(at), nil)
}

func (c *Client) DownloadQRCode(ctx context.Context, id string) (Blob, error) {
	return c.download(ctx, pathID("/qr-codes", id, "download"), "qrcode-"+id)
}

// Files

func (c *Client) GetFiles(ctx context.Context) ([]Record, error) {
	return c.list(ctx, "/files", "files")
}

func (c *Client) GetFile(ctx context.Context, id string) (Record, error) {
	return c.get(ctx, pathID("/files", id))
}

func (c *Client) DeleteFile(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, pathID("/files", id), nil, nil)
}

func (c *Client) ExtendFile(ctx context.Context, id string, until time.Time) error {
	return c.do(ctx, http.MethodPatch, pathID("/files", id, "extend"), expiryBody(&until), nil)
}

func (c *Client) ResetFileDownloads(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, pathID("/files", id, "reset-downloads"), nil, nil)
}

// Users

type UserUpdate struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (c *Client) GetUsers(ctx context.Context) ([]Record, error) {
	return c.list(ctx, "/users", "users")
}

func (c *Client) GetUser(ctx context.Context, id string) (Record, error) {
	return c.get(ctx, pathID("/users", id))
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, pathID("/users", id), nil, nil)
}

func (c *Client) UpdateUser(ctx context.Context, id string, u UserUpdate) error {
	return c.do(ctx, http.MethodPut, pathID("/users", id), u, nil)
}

func (c *Client) ToggleStatus(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, pathID("/users", id, "toggle-status"), nil, nil)
}

func (c *Client) ChangePlan(ctx context.Context, userID, planID string) error {
	return c.do(ctx, http.MethodPatch, pathID("/users", userID, "plan"), map[string]string{"plan_id": planID}, nil)
}

func (c *Client) GetPlans(ctx context.Context) ([]Record, error) {
	return c.list(ctx, "/plans", "plans")
}

// Transactions

func (c *Client) GetTransactions(ctx context.Context) ([]Record, error) {
	return c.list(ctx, "/transactions", "transactions")
}

func (c *Client) GetTransaction(ctx context.Context, id string) (Record, error) {
	return c.get(ctx, pathID("/transactions", id))
}

func (c *Client) ReplayTransaction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, pathID("/transactions", id, "replay"), nil, nil)
}

func (c *Client) MarkSuccessTransaction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, pathID("/transactions", id, "mark-success"), nil, nil)
}

// Subscriptions

func (c *Client) GetSubscriptions(ctx context.Context) ([]Record, error) {
	return c.list(ctx, "/subscriptions", "subscriptions")
}

func (c *Client) GetSubscription(ctx context.Context, id string) (Record, error) {
	return c.get(ctx, pathID("/subscriptions", id))
}

func (c *Client) DeleteSubscription(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, pathID("/subscriptions", id), nil, nil)
}

// Posts

func (c *Client) GetPosts(ctx context.Context) ([]Record, error) {
	return c.list(ctx, "/posts", "posts")
}

func (c *Client) GetPost(ctx context.Context, id string) (Record, error) {
	return c.get(ctx, pathID("/posts", id))
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, pathID("/posts", id), nil, nil)
}

func (c *Client) TogglePublishPost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, pathID("/posts", id, "toggle-publish"), nil, nil)
}

// Notifications

type NotificationRequest struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Type     string `json:"type"`
	Audience string `json:"audience"`
	UserID   string `json:"user_id,omitempty"`
	Link     string `json:"link,omitempty"`
}

func (c *Client) SendNotification(ctx context.Context, n NotificationRequest) (Record, error) {
	var out Record
	if err := c.do(ctx, http.MethodPost, "/notifications/send", n, &out); err != nil {
		return nil, err
	}
	if inner, ok := out["data"].(map[string]any); ok {
		return inner, nil
	}
	return out, nil
}

func (c *Client) GetNotificationHistory(ctx context.Context) ([]Record, error) {
	return c.list(ctx, "/notifications/history", "notifications")
}

func expiryBody(at *time.Time) map[string]any {
	if at == nil {
		return map[string]any{"expires_at": nil}
	}
	return map[string]any{"expires_at": at.UTC().Format(time.RFC3339)}
}
