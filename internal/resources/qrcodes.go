package resources

import (
	"context"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/listsync"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/viewmodel"
)

var qrMapping = viewmodel.Mapping{
	{From: "id", To: "id", Default: "", Convert: viewmodel.String},
	{From: "name", To: "name", Default: "", Convert: viewmodel.String},
	{From: "type", To: "type", Default: "url", Convert: viewmodel.Lower},
	{From: "content", To: "content", Default: "", Convert: viewmodel.String},
	{From: "scan_count", To: "scans", Default: 0, Convert: viewmodel.Int},
	{From: "status", To: "status", Default: "", Convert: viewmodel.Lower},
	{From: "user", To: "user", Default: viewmodel.UnknownOwner(), Convert: viewmodel.Owner},
	{From: "created_at", To: "createdAt", Convert: viewmodel.Timestamp},
	{From: "expires_at", To: "expiresAt", Convert: viewmodel.Timestamp},
}

// QRTypes are the content kinds the backend generates codes for.
var QRTypes = []string{"url", "text", "email", "phone", "sms", "wifi", "vcard"}

func QRCodes() *Def[model.QRCode] {
	res := &listsync.Resource[model.QRCode]{
		Name: "qrcodes",
		Fetch: fetcher((*api.Client).GetQRCodes, qrMapping, func(q *model.QRCode) {
			q.Status = expiryStatus(q.Status, q.ExpiresAt, time.Now())
		}),
		ID:    func(q model.QRCode) string { return q.ID },
		Owner: func(q model.QRCode) model.User { return q.User },
		Search: []func(model.QRCode) string{
			func(q model.QRCode) string { return q.Name },
			func(q model.QRCode) string { return q.Content },
			func(q model.QRCode) string { return q.User.Name },
			func(q model.QRCode) string { return q.User.Email },
		},
		Filters: map[string]listsync.Predicate[model.QRCode]{
			listsync.FilterUserID:   listsync.Equals(func(q model.QRCode) string { return q.User.ID }),
			listsync.FilterType:     listsync.Equals(func(q model.QRCode) string { return q.Type }),
			listsync.FilterStatus:   listsync.Equals(func(q model.QRCode) string { return q.Status }),
			listsync.FilterDateFrom: listsync.DateFrom(func(q model.QRCode) time.Time { return q.CreatedAt }),
			listsync.FilterDateTo:   listsync.DateTo(func(q model.QRCode) time.Time { return q.CreatedAt }),
			listsync.FilterMin:      listsync.Min(func(q model.QRCode) float64 { return float64(q.Scans) }),
			listsync.FilterMax:      listsync.Max(func(q model.QRCode) float64 { return float64(q.Scans) }),
		},
		Actions: map[listsync.Kind]listsync.Action[model.QRCode]{
			listsync.KindDelete: removeAction((*api.Client).DeleteQRCode, func(q model.QRCode) string { return q.ID }, "QR code deleted"),
			listsync.KindExtendExpiry: {
				Call: func(ctx context.Context, c *api.Client, q model.QRCode, p listsync.Payload) error {
					if err := requireUntil(p); err != nil {
						return err
					}
					return c.ExpireQRCode(ctx, q.ID, &p.Until)
				},
				Apply: func(q *model.QRCode, p listsync.Payload) {
					until := p.Until
					q.ExpiresAt = &until
					q.Status = expiryStatus(StatusActive, q.ExpiresAt, time.Now())
				},
				Done: "QR code expiry updated",
			},
			listsync.KindClearExpiry: {
				Call: func(ctx context.Context, c *api.Client, q model.QRCode, _ listsync.Payload) error {
					return c.ExpireQRCode(ctx, q.ID, nil)
				},
				Apply: func(q *model.QRCode, _ listsync.Payload) {
					q.ExpiresAt = nil
					q.Status = StatusActive
				},
				Done: "QR code expiry removed",
			},
		},
		Defaults: func(now time.Time) listsync.Filters {
			return listsync.Filters{Values: listsync.LastDays(now, 30)}
		},
	}
	return &Def[model.QRCode]{
		Resource: res,
		Key:      "qrcodes",
		Title:    "QR codes",
		Status:   func(q model.QRCode) string { return q.Status },
		Columns: []Column[model.QRCode]{
			{Title: "Name", Width: 20, Value: func(q model.QRCode) string { return q.Name }},
			{Title: "Type", Width: 6, Value: func(q model.QRCode) string { return q.Type }},
			{Title: "Content", Width: 34, Value: func(q model.QRCode) string { return q.Content }},
			{Title: "Scans", Width: 7, Value: func(q model.QRCode) string { return count(q.Scans) }},
			{Title: "Status", Width: 8, Value: func(q model.QRCode) string { return q.Status }},
			{Title: "Owner", Width: 20, Value: func(q model.QRCode) string { return q.User.Name }},
			{Title: "Created", Width: 16, Value: func(q model.QRCode) string { return date(q.CreatedAt) }},
		},
		Details: func(q model.QRCode) []Detail {
			return []Detail{
				{"ID", q.ID},
				{"Name", q.Name},
				{"Type", q.Type},
				{"Content", q.Content},
				{"Scans", count(q.Scans)},
				{"Status", q.Status},
				{"Owner", owner(q.User)},
				{"Created", date(q.CreatedAt)},
				{"Expires", optDate(q.ExpiresAt)},
			}
		},
		Choices: map[string][]string{
			listsync.FilterStatus: {listsync.All, StatusActive, StatusExpired},
			listsync.FilterType:   append([]string{listsync.All}, QRTypes...),
		},
	}
}
