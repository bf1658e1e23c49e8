package resources

import (
	"context"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/listsync"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/viewmodel"
)

var transactionMapping = viewmodel.Mapping{
	{From: "id", To: "id", Default: "", Convert: viewmodel.String},
	{From: "reference", To: "reference", Default: "", Convert: viewmodel.String},
	{From: "amount", To: "amount", Default: 0.0, Convert: viewmodel.Float},
	{From: "currency", To: "currency", Default: "EUR", Convert: viewmodel.NonEmpty},
	{From: "payment_method", To: "method", Default: "", Convert: viewmodel.Lower},
	{From: "plan", To: "plan", Default: "", Convert: planName},
	{From: "status", To: "status", Default: string(model.TransactionPending), Convert: viewmodel.Lower},
	{From: "user", To: "user", Default: viewmodel.UnknownOwner(), Convert: viewmodel.Owner},
	{From: "created_at", To: "createdAt", Convert: viewmodel.Timestamp},
}

var PaymentMethods = []string{"card", "paypal", "mobile_money", "bank_transfer"}

func Transactions() *Def[model.Transaction] {
	res := &listsync.Resource[model.Transaction]{
		Name:  "transactions",
		Fetch: fetcher[model.Transaction]((*api.Client).GetTransactions, transactionMapping, nil),
		ID:    func(t model.Transaction) string { return t.ID },
		Owner: func(t model.Transaction) model.User { return t.User },
		Search: []func(model.Transaction) string{
			func(t model.Transaction) string { return t.Reference },
			func(t model.Transaction) string { return t.User.Name },
			func(t model.Transaction) string { return t.User.Email },
			func(t model.Transaction) string { return t.Plan },
		},
		Filters: map[string]listsync.Predicate[model.Transaction]{
			listsync.FilterUserID:   listsync.Equals(func(t model.Transaction) string { return t.User.ID }),
			listsync.FilterStatus:   listsync.Equals(func(t model.Transaction) string { return string(t.Status) }),
			"method":                listsync.Equals(func(t model.Transaction) string { return t.Method }),
			listsync.FilterDateFrom: listsync.DateFrom(func(t model.Transaction) time.Time { return t.CreatedAt }),
			listsync.FilterDateTo:   listsync.DateTo(func(t model.Transaction) time.Time { return t.CreatedAt }),
			listsync.FilterMin:      listsync.Min(func(t model.Transaction) float64 { return t.Amount }),
			listsync.FilterMax:      listsync.Max(func(t model.Transaction) float64 { return t.Amount }),
		},
		Actions: map[listsync.Kind]listsync.Action[model.Transaction]{
			listsync.KindReplay: {
				Call: func(ctx context.Context, c *api.Client, t model.Transaction, _ listsync.Payload) error {
					return c.ReplayTransaction(ctx, t.ID)
				},
				Done: "Verification replayed",
			},
			listsync.KindMarkSuccess: {
				Call: func(ctx context.Context, c *api.Client, t model.Transaction, _ listsync.Payload) error {
					return c.MarkSuccessTransaction(ctx, t.ID)
				},
				Done: "Transaction marked as completed",
			},
		},
		SetStatus: func(t *model.Transaction, status string) { t.Status = model.TransactionStatus(status) },
		Defaults: func(now time.Time) listsync.Filters {
			return listsync.Filters{Values: listsync.LastDays(now, 30)}
		},
	}
	return &Def[model.Transaction]{
		Resource: res,
		Key:      "transactions",
		Title:    "Transactions",
		Status:   func(t model.Transaction) string { return string(t.Status) },
		Columns: []Column[model.Transaction]{
			{Title: "Reference", Width: 18, Value: func(t model.Transaction) string { return t.Reference }},
			{Title: "Amount", Width: 12, Value: func(t model.Transaction) string { return money(t.Amount, t.Currency) }},
			{Title: "Method", Width: 12, Value: func(t model.Transaction) string { return t.Method }},
			{Title: "Plan", Width: 10, Value: func(t model.Transaction) string { return t.Plan }},
			{Title: "Status", Width: 10, Value: func(t model.Transaction) string { return string(t.Status) }},
			{Title: "User", Width: 20, Value: func(t model.Transaction) string { return t.User.Name }},
			{Title: "Date", Width: 16, Value: func(t model.Transaction) string { return date(t.CreatedAt) }},
		},
		Details: func(t model.Transaction) []Detail {
			return []Detail{
				{"ID", t.ID},
				{"Reference", t.Reference},
				{"Amount", money(t.Amount, t.Currency)},
				{"Method", t.Method},
				{"Plan", t.Plan},
				{"Status", string(t.Status)},
				{"User", owner(t.User)},
				{"Date", date(t.CreatedAt)},
			}
		},
		Choices: map[string][]string{
			listsync.FilterStatus: {listsync.All, string(model.TransactionPending), string(model.TransactionCompleted), string(model.TransactionFailed)},
			"method":              append([]string{listsync.All}, PaymentMethods...),
		},
	}
}
