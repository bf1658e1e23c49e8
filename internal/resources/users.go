package resources

import (
	"context"
	"strings"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/listsync"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/viewmodel"
)

var accountMapping = viewmodel.Mapping{
	{From: "id", To: "id", Default: "", Convert: viewmodel.String},
	{From: "name", To: "name", Default: model.UnknownUserName, Convert: viewmodel.NonEmpty},
	{From: "email", To: "email", Default: "", Convert: viewmodel.String},
	{From: "role", To: "role", Default: "user", Convert: viewmodel.Lower},
	{From: "plan", To: "plan", Default: "free", Convert: planName},
	{From: "is_active", To: "active", Default: true, Convert: viewmodel.Bool},
	{From: "email_verified_at", To: "verified", Default: false, Convert: notNull},
	{From: "created_at", To: "createdAt", Convert: viewmodel.Timestamp},
}

// Editable user fields for update-fields.
const (
	FieldName  = "name"
	FieldEmail = "email"
)

func accountStatus(a model.Account) string {
	if a.Active {
		return StatusActive
	}
	return StatusInactive
}

func Users() *Def[model.Account] {
	res := &listsync.Resource[model.Account]{
		Name:  "users",
		Fetch: fetcher[model.Account]((*api.Client).GetUsers, accountMapping, nil),
		ID:    func(a model.Account) string { return a.ID },
		Owner: model.Account.AsUser,
		Search: []func(model.Account) string{
			func(a model.Account) string { return a.Name },
			func(a model.Account) string { return a.Email },
		},
		Filters: map[string]listsync.Predicate[model.Account]{
			"role":                  listsync.Equals(func(a model.Account) string { return a.Role }),
			listsync.FilterStatus:   listsync.Equals(accountStatus),
			"plan":                  listsync.Equals(func(a model.Account) string { return a.Plan }),
			listsync.FilterDateFrom: listsync.DateFrom(func(a model.Account) time.Time { return a.CreatedAt }),
			listsync.FilterDateTo:   listsync.DateTo(func(a model.Account) time.Time { return a.CreatedAt }),
		},
		Actions: map[listsync.Kind]listsync.Action[model.Account]{
			listsync.KindDelete: removeAction((*api.Client).DeleteUser, func(a model.Account) string { return a.ID }, "User deleted"),
			listsync.KindUpdateFields: {
				Call: func(ctx context.Context, c *api.Client, a model.Account, p listsync.Payload) error {
					return c.UpdateUser(ctx, a.ID, api.UserUpdate{
						Name:  strings.TrimSpace(p.Fields[FieldName]),
						Email: strings.TrimSpace(p.Fields[FieldEmail]),
					})
				},
				Apply: func(a *model.Account, p listsync.Payload) {
					if v := strings.TrimSpace(p.Fields[FieldName]); v != "" {
						a.Name = v
					}
					if v := strings.TrimSpace(p.Fields[FieldEmail]); v != "" {
						a.Email = v
					}
				},
				Done: "User updated",
			},
			listsync.KindToggleStatus: {
				Call: func(ctx context.Context, c *api.Client, a model.Account, _ listsync.Payload) error {
					return c.ToggleStatus(ctx, a.ID)
				},
				Apply: func(a *model.Account, _ listsync.Payload) { a.Active = !a.Active },
				Done:  "User status changed",
			},
			listsync.KindChangePlan: {
				Call: func(ctx context.Context, c *api.Client, a model.Account, p listsync.Payload) error {
					return c.ChangePlan(ctx, a.ID, p.PlanID)
				},
				Apply: func(a *model.Account, p listsync.Payload) { a.Plan = planLabel(p) },
				Done:  "Plan changed",
			},
		},
	}
	return &Def[model.Account]{
		Resource: res,
		Key:      "users",
		Title:    "Users",
		Status:   accountStatus,
		Columns: []Column[model.Account]{
			{Title: "Name", Width: 22, Value: func(a model.Account) string { return a.Name }},
			{Title: "Email", Width: 28, Value: func(a model.Account) string { return a.Email }},
			{Title: "Role", Width: 11, Value: func(a model.Account) string { return a.Role }},
			{Title: "Plan", Width: 10, Value: func(a model.Account) string { return a.Plan }},
			{Title: "Status", Width: 8, Value: accountStatus},
			{Title: "Joined", Width: 16, Value: func(a model.Account) string { return date(a.CreatedAt) }},
		},
		Details: func(a model.Account) []Detail {
			return []Detail{
				{"ID", a.ID},
				{"Name", a.Name},
				{"Email", a.Email},
				{"Role", a.Role},
				{"Plan", a.Plan},
				{"Status", accountStatus(a)},
				{"Email verified", yesNo(a.Verified)},
				{"Joined", date(a.CreatedAt)},
			}
		},
		Choices: map[string][]string{
			"role":                {listsync.All, "user", string(model.RoleAdmin), string(model.RoleSuperAdmin)},
			listsync.FilterStatus: {listsync.All, StatusActive, StatusInactive},
		},
	}
}
