package resources

import (
	"context"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/listsync"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/viewmodel"

	"github.com/dustin/go-humanize"
)

var fileMapping = viewmodel.Mapping{
	{From: "id", To: "id", Default: "", Convert: viewmodel.String},
	{From: "original_name", To: "name", Default: "", Convert: viewmodel.String},
	{From: "original_name", To: "type", Default: "", Convert: viewmodel.Extension},
	{From: "code", To: "code", Default: "", Convert: viewmodel.String},
	{From: "size", To: "size", Default: 0, Convert: viewmodel.Int},
	{From: "download_count", To: "downloads", Default: 0, Convert: viewmodel.Int},
	{From: "status", To: "status", Default: "", Convert: viewmodel.Lower},
	{From: "user", To: "user", Default: viewmodel.UnknownOwner(), Convert: viewmodel.Owner},
	{From: "created_at", To: "createdAt", Convert: viewmodel.Timestamp},
	{From: "expires_at", To: "expiresAt", Convert: viewmodel.Timestamp},
}

// DecodeFiles maps raw file records. Exported for callers holding records from
// GetFile.
func DecodeFiles(raws []api.Record) ([]model.SharedFile, error) {
	return Decode(fileMapping, raws, finishFile)
}

func finishFile(f *model.SharedFile) {
	f.Status = expiryStatus(f.Status, f.ExpiresAt, time.Now())
}

func Files() *Def[model.SharedFile] {
	res := &listsync.Resource[model.SharedFile]{
		Name:  "files",
		Fetch: fetcher((*api.Client).GetFiles, fileMapping, finishFile),
		ID:    func(f model.SharedFile) string { return f.ID },
		Owner: func(f model.SharedFile) model.User { return f.User },
		Search: []func(model.SharedFile) string{
			func(f model.SharedFile) string { return f.Name },
			func(f model.SharedFile) string { return f.Code },
			func(f model.SharedFile) string { return f.User.Name },
			func(f model.SharedFile) string { return f.User.Email },
		},
		Filters: map[string]listsync.Predicate[model.SharedFile]{
			listsync.FilterUserID:   listsync.Equals(func(f model.SharedFile) string { return f.User.ID }),
			listsync.FilterType:     listsync.Equals(func(f model.SharedFile) string { return f.Type }),
			listsync.FilterStatus:   listsync.Equals(func(f model.SharedFile) string { return f.Status }),
			listsync.FilterDateFrom: listsync.DateFrom(func(f model.SharedFile) time.Time { return f.CreatedAt }),
			listsync.FilterDateTo:   listsync.DateTo(func(f model.SharedFile) time.Time { return f.CreatedAt }),
			listsync.FilterMin:      listsync.Min(func(f model.SharedFile) float64 { return float64(f.Downloads) }),
			listsync.FilterMax:      listsync.Max(func(f model.SharedFile) float64 { return float64(f.Downloads) }),
		},
		Actions: map[listsync.Kind]listsync.Action[model.SharedFile]{
			listsync.KindDelete: removeAction((*api.Client).DeleteFile, func(f model.SharedFile) string { return f.ID }, "File deleted"),
			listsync.KindExtendExpiry: {
				Call: func(ctx context.Context, c *api.Client, f model.SharedFile, p listsync.Payload) error {
					if err := requireUntil(p); err != nil {
						return err
					}
					return c.ExtendFile(ctx, f.ID, p.Until)
				},
				Apply: func(f *model.SharedFile, p listsync.Payload) {
					until := p.Until
					f.ExpiresAt = &until
					f.Status = expiryStatus(StatusActive, f.ExpiresAt, time.Now())
				},
				Done: "File expiry extended",
			},
			listsync.KindResetCounter: {
				Call: func(ctx context.Context, c *api.Client, f model.SharedFile, _ listsync.Payload) error {
					return c.ResetFileDownloads(ctx, f.ID)
				},
				Apply: func(f *model.SharedFile, _ listsync.Payload) { f.Downloads = 0 },
				Done:  "Download counter reset",
			},
		},
		Defaults: func(now time.Time) listsync.Filters {
			return listsync.Filters{Values: listsync.LastDays(now, 30)}
		},
	}
	return &Def[model.SharedFile]{
		Resource: res,
		Key:      "files",
		Title:    "Files",
		Status:   func(f model.SharedFile) string { return f.Status },
		Columns: []Column[model.SharedFile]{
			{Title: "Name", Width: 28, Value: func(f model.SharedFile) string { return f.Name }},
			{Title: "Type", Width: 6, Value: func(f model.SharedFile) string { return f.Type }},
			{Title: "Size", Width: 9, Value: func(f model.SharedFile) string { return humanize.Bytes(uint64(max(f.Size, 0))) }},
			{Title: "Downloads", Width: 9, Value: func(f model.SharedFile) string { return count(f.Downloads) }},
			{Title: "Status", Width: 8, Value: func(f model.SharedFile) string { return f.Status }},
			{Title: "Owner", Width: 20, Value: func(f model.SharedFile) string { return f.User.Name }},
			{Title: "Expires", Width: 16, Value: func(f model.SharedFile) string { return optDate(f.ExpiresAt) }},
		},
		Details: func(f model.SharedFile) []Detail {
			return []Detail{
				{"ID", f.ID},
				{"Name", f.Name},
				{"Code", f.Code},
				{"Type", f.Type},
				{"Size", humanize.Bytes(uint64(max(f.Size, 0)))},
				{"Downloads", count(f.Downloads)},
				{"Status", f.Status},
				{"Owner", owner(f.User)},
				{"Created", date(f.CreatedAt)},
				{"Expires", optDate(f.ExpiresAt)},
			}
		},
		Choices: map[string][]string{
			listsync.FilterStatus: {listsync.All, StatusActive, StatusExpired},
		},
	}
}
