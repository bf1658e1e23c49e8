package resources

import (
	"context"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/listsync"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/viewmodel"
)

var subscriptionMapping = viewmodel.Mapping{
	{From: "id", To: "id", Default: "", Convert: viewmodel.String},
	{From: "plan", To: "plan", Default: "", Convert: planName},
	{From: "plan", To: "planId", Default: "", Convert: planID},
	{From: "status", To: "status", Default: StatusActive, Convert: viewmodel.Lower},
	{From: "price", To: "price", Default: 0.0, Convert: viewmodel.Float},
	{From: "interval", To: "interval", Default: "month", Convert: viewmodel.Lower},
	{From: "user", To: "user", Default: viewmodel.UnknownOwner(), Convert: viewmodel.Owner},
	{From: "created_at", To: "createdAt", Convert: viewmodel.Timestamp},
	{From: "ends_at", To: "expiresAt", Convert: viewmodel.Timestamp},
}

func Subscriptions() *Def[model.Subscription] {
	res := &listsync.Resource[model.Subscription]{
		Name: "subscriptions",
		Fetch: fetcher((*api.Client).GetSubscriptions, subscriptionMapping, func(s *model.Subscription) {
			if s.PlanID == "" {
				s.PlanID = s.Plan
			}
		}),
		ID:    func(s model.Subscription) string { return s.ID },
		Owner: func(s model.Subscription) model.User { return s.User },
		Search: []func(model.Subscription) string{
			func(s model.Subscription) string { return s.User.Name },
			func(s model.Subscription) string { return s.User.Email },
			func(s model.Subscription) string { return s.Plan },
		},
		Filters: map[string]listsync.Predicate[model.Subscription]{
			listsync.FilterUserID:   listsync.Equals(func(s model.Subscription) string { return s.User.ID }),
			"plan":                  listsync.Equals(func(s model.Subscription) string { return s.Plan }),
			listsync.FilterStatus:   listsync.Equals(func(s model.Subscription) string { return s.Status }),
			listsync.FilterDateFrom: listsync.DateFrom(func(s model.Subscription) time.Time { return s.CreatedAt }),
			listsync.FilterDateTo:   listsync.DateTo(func(s model.Subscription) time.Time { return s.CreatedAt }),
		},
		Actions: map[listsync.Kind]listsync.Action[model.Subscription]{
			listsync.KindDelete: removeAction((*api.Client).DeleteSubscription, func(s model.Subscription) string { return s.ID }, "Subscription cancelled"),
			listsync.KindChangePlan: {
				// Plans hang off the subscriber.
				Call: func(ctx context.Context, c *api.Client, s model.Subscription, p listsync.Payload) error {
					return c.ChangePlan(ctx, s.User.ID, p.PlanID)
				},
				Apply: func(s *model.Subscription, p listsync.Payload) {
					s.PlanID = p.PlanID
					s.Plan = planLabel(p)
				},
				Done: "Plan changed",
			},
		},
	}
	return &Def[model.Subscription]{
		Resource: res,
		Key:      "subscriptions",
		Title:    "Subscriptions",
		Status:   func(s model.Subscription) string { return s.Status },
		Columns: []Column[model.Subscription]{
			{Title: "User", Width: 22, Value: func(s model.Subscription) string { return s.User.Name }},
			{Title: "Plan", Width: 10, Value: func(s model.Subscription) string { return s.Plan }},
			{Title: "Price", Width: 10, Value: func(s model.Subscription) string { return money(s.Price, "") + "/" + s.Interval }},
			{Title: "Status", Width: 10, Value: func(s model.Subscription) string { return s.Status }},
			{Title: "Started", Width: 16, Value: func(s model.Subscription) string { return date(s.CreatedAt) }},
			{Title: "Ends", Width: 16, Value: func(s model.Subscription) string { return optDate(s.ExpiresAt) }},
		},
		Details: func(s model.Subscription) []Detail {
			return []Detail{
				{"ID", s.ID},
				{"User", owner(s.User)},
				{"Plan", s.Plan},
				{"Price", money(s.Price, "") + "/" + s.Interval},
				{"Status", s.Status},
				{"Started", date(s.CreatedAt)},
				{"Ends", optDate(s.ExpiresAt)},
			}
		},
		Choices: map[string][]string{
			listsync.FilterStatus: {listsync.All, StatusActive, "cancelled", StatusExpired},
		},
	}
}
