package resources

import (
	"context"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/listsync"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/viewmodel"
)

var linkMapping = viewmodel.Mapping{
	{From: "id", To: "id", Default: "", Convert: viewmodel.String},
	{From: "short_code", To: "shortCode", Default: "", Convert: viewmodel.String},
	{From: "short_url", To: "shortUrl", Default: ""},
	{From: "original_url", To: "originalUrl", Default: ""},
	{From: "clicks", To: "clicks", Default: 0, Convert: viewmodel.Int},
	{From: "status", To: "status", Default: "", Convert: viewmodel.Lower},
	{From: "user", To: "user", Default: viewmodel.UnknownOwner(), Convert: viewmodel.Owner},
	{From: "created_at", To: "createdAt", Convert: viewmodel.Timestamp},
	{From: "expires_at", To: "expiresAt", Convert: viewmodel.Timestamp},
}

func Links() *Def[model.Link] {
	res := &listsync.Resource[model.Link]{
		Name: "links",
		Fetch: fetcher((*api.Client).GetLinks, linkMapping, func(l *model.Link) {
			l.Status = expiryStatus(l.Status, l.ExpiresAt, time.Now())
		}),
		ID:    func(l model.Link) string { return l.ID },
		Owner: func(l model.Link) model.User { return l.User },
		Search: []func(model.Link) string{
			func(l model.Link) string { return l.OriginalURL },
			func(l model.Link) string { return l.ShortCode },
			func(l model.Link) string { return l.User.Name },
			func(l model.Link) string { return l.User.Email },
		},
		Filters: map[string]listsync.Predicate[model.Link]{
			listsync.FilterUserID:   listsync.Equals(func(l model.Link) string { return l.User.ID }),
			listsync.FilterStatus:   listsync.Equals(func(l model.Link) string { return l.Status }),
			listsync.FilterDateFrom: listsync.DateFrom(func(l model.Link) time.Time { return l.CreatedAt }),
			listsync.FilterDateTo:   listsync.DateTo(func(l model.Link) time.Time { return l.CreatedAt }),
			listsync.FilterMin:      listsync.Min(func(l model.Link) float64 { return float64(l.Clicks) }),
			listsync.FilterMax:      listsync.Max(func(l model.Link) float64 { return float64(l.Clicks) }),
		},
		Actions: map[listsync.Kind]listsync.Action[model.Link]{
			listsync.KindDelete: removeAction((*api.Client).DeleteLink, func(l model.Link) string { return l.ID }, "Link deleted"),
			listsync.KindExtendExpiry: {
				Call: func(ctx context.Context, c *api.Client, l model.Link, p listsync.Payload) error {
					if err := requireUntil(p); err != nil {
						return err
					}
					return c.ExpireLink(ctx, l.ID, &p.Until)
				},
				Apply: func(l *model.Link, p listsync.Payload) {
					until := p.Until
					l.ExpiresAt = &until
					l.Status = expiryStatus(StatusActive, l.ExpiresAt, time.Now())
				},
				Done: "Link expiry updated",
			},
			listsync.KindClearExpiry: {
				Call: func(ctx context.Context, c *api.Client, l model.Link, _ listsync.Payload) error {
					return c.ExpireLink(ctx, l.ID, nil)
				},
				Apply: func(l *model.Link, _ listsync.Payload) {
					l.ExpiresAt = nil
					l.Status = StatusActive
				},
				Done: "Link expiry removed",
			},
		},
		Defaults: func(now time.Time) listsync.Filters {
			return listsync.Filters{Values: listsync.LastDays(now, 30)}
		},
	}
	return &Def[model.Link]{
		Resource: res,
		Key:      "links",
		Title:    "Links",
		Status:   func(l model.Link) string { return l.Status },
		Columns: []Column[model.Link]{
			{Title: "Code", Width: 10, Value: func(l model.Link) string { return l.ShortCode }},
			{Title: "Destination", Width: 40, Value: func(l model.Link) string { return l.OriginalURL }},
			{Title: "Clicks", Width: 8, Value: func(l model.Link) string { return count(l.Clicks) }},
			{Title: "Status", Width: 8, Value: func(l model.Link) string { return l.Status }},
			{Title: "Owner", Width: 20, Value: func(l model.Link) string { return l.User.Name }},
			{Title: "Created", Width: 16, Value: func(l model.Link) string { return date(l.CreatedAt) }},
			{Title: "Expires", Width: 16, Value: func(l model.Link) string { return optDate(l.ExpiresAt) }},
		},
		Details: func(l model.Link) []Detail {
			return []Detail{
				{"ID", l.ID},
				{"Short URL", l.ShortURL},
				{"Short code", l.ShortCode},
				{"Destination", l.OriginalURL},
				{"Clicks", count(l.Clicks)},
				{"Status", l.Status},
				{"Owner", owner(l.User)},
				{"Created", date(l.CreatedAt)},
				{"Expires", optDate(l.ExpiresAt)},
			}
		},
		Choices: map[string][]string{
			listsync.FilterStatus: {listsync.All, StatusActive, StatusExpired},
		},
	}
}
