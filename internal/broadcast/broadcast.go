// Package broadcast sends notifications to groups of users and reads back the
// send history.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/session"
	"shortdash-cli/internal/viewmodel"
)

const (
	MaxTitle   = 120
	MaxMessage = 2000
)

var (
	Types     = []string{"info", "warning", "success", "promo"}
	Audiences = []string{"all", "free", "premium", "user"}
)

const AudienceUser = "user"

// Form field names, shared with ValidationError.
const (
	FieldTitle    = "title"
	FieldMessage  = "message"
	FieldType     = "type"
	FieldAudience = "audience"
	FieldUserID   = "userId"
	FieldLink     = "link"
)

type Form struct {
	Title    string
	Message  string
	Type     string
	Audience string
	UserID   string
	Link     string
}

// NewForm returns a form with the default type and audience.
func NewForm() Form {
	return Form{Type: "info", Audience: "all"}
}

// ValidationError maps field names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid notification: " + strings.Join(parts, "; ")
}

func (f Form) Validate() error {
	errs := map[string]string{}
	title := strings.TrimSpace(f.Title)
	switch {
	case title == "":
		errs[FieldTitle] = "required"
	case utf8.RuneCountInString(title) > MaxTitle:
		errs[FieldTitle] = fmt.Sprintf("at most %d characters", MaxTitle)
	}
	msg := strings.TrimSpace(f.Message)
	switch {
	case msg == "":
		errs[FieldMessage] = "required"
	case utf8.RuneCountInString(msg) > MaxMessage:
		errs[FieldMessage] = fmt.Sprintf("at most %d characters", MaxMessage)
	}
	if !contains(Types, f.Type) {
		errs[FieldType] = "one of " + strings.Join(Types, ", ")
	}
	if !contains(Audiences, f.Audience) {
		errs[FieldAudience] = "one of " + strings.Join(Audiences, ", ")
	}
	if f.Audience == AudienceUser && strings.TrimSpace(f.UserID) == "" {
		errs[FieldUserID] = "required when the audience is a single user"
	}
	if link := strings.TrimSpace(f.Link); link != "" {
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs[FieldLink] = "must be an absolute http(s) URL"
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func (f Form) request() api.NotificationRequest {
	req := api.NotificationRequest{
		Title:    strings.TrimSpace(f.Title),
		Message:  strings.TrimSpace(f.Message),
		Type:     f.Type,
		Audience: f.Audience,
		Link:     strings.TrimSpace(f.Link),
	}
	if f.Audience == AudienceUser {
		req.UserID = strings.TrimSpace(f.UserID)
	}
	return req
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

var ErrNotPrivileged = errors.New("broadcast: role may not send notifications")

var notificationMapping = viewmodel.Mapping{
	{From: "id", To: "id", Default: "", Convert: viewmodel.String},
	{From: "title", To: "title", Default: "", Convert: viewmodel.String},
	{From: "message", To: "message", Default: "", Convert: viewmodel.String},
	{From: "type", To: "type", Default: "info", Convert: viewmodel.Lower},
	{From: "audience", To: "audience", Default: "all", Convert: viewmodel.Lower},
	{From: "recipients_count", To: "recipients", Default: 0, Convert: viewmodel.Int},
	{From: "sender", To: "sentBy", Default: viewmodel.UnknownOwner(), Convert: viewmodel.Owner},
	{From: "created_at", To: "createdAt", Convert: viewmodel.Timestamp},
}

type Service struct {
	client *api.Client
	sess   session.Session
}

func NewService(c *api.Client, sess session.Session) *Service {
	return &Service{client: c, sess: sess}
}

// Send validates f and posts it. Nothing is sent when validation fails.
func (s *Service) Send(ctx context.Context, f Form) (model.Notification, error) {
	if !s.sess.Privileged() {
		return model.Notification{}, ErrNotPrivileged
	}
	if err := f.Validate(); err != nil {
		return model.Notification{}, err
	}
	rec, err := s.client.SendNotification(ctx, f.request())
	if err != nil {
		return model.Notification{}, err
	}
	return viewmodel.Decode[model.Notification](notificationMapping, rec)
}

// History lists sent notifications, newest first as the backend orders them.
func (s *Service) History(ctx context.Context) ([]model.Notification, error) {
	if !s.sess.Privileged() {
		return nil, ErrNotPrivileged
	}
	raws, err := s.client.GetNotificationHistory(ctx)
	if err != nil {
		return nil, err
	}
	return viewmodel.DecodeAll[model.Notification](notificationMapping, raws)
}
