package resources

import (
	"context"
	"strings"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/viewmodel"
)

var planMapping = viewmodel.Mapping{
	{From: "id", To: "id", Default: "", Convert: viewmodel.String},
	{From: "name", To: "name", Default: "", Convert: viewmodel.String},
	{From: "price", To: "price", Default: 0.0, Convert: viewmodel.Float},
	{From: "interval", To: "interval", Default: "month", Convert: viewmodel.Lower},
}

// FetchPlans loads the plans offered by the change-plan picker.
func FetchPlans(ctx context.Context, c *api.Client) ([]model.Plan, error) {
	raws, err := c.GetPlans(ctx)
	if err != nil {
		return nil, err
	}
	return Decode[model.Plan](planMapping, raws, nil)
}

// FindPlan matches a plan by id or, case-insensitively, by name.
func FindPlan(plans []model.Plan, key string) (model.Plan, bool) {
	for _, p := range plans {
		if p.ID == key {
			return p, true
		}
	}
	for _, p := range plans {
		if strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(key)) {
			return p, true
		}
	}
	return model.Plan{}, false
}
