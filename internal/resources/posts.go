package resources

import (
	"context"
	"strconv"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/listsync"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/viewmodel"
)

var postMapping = viewmodel.Mapping{
	{From: "id", To: "id", Default: "", Convert: viewmodel.String},
	{From: "title", To: "title", Default: "", Convert: viewmodel.String},
	{From: "slug", To: "slug", Default: "", Convert: viewmodel.String},
	{From: "category", To: "category", Default: "", Convert: planName},
	{From: "excerpt", To: "excerpt", Default: "", Convert: viewmodel.String},
	{From: "content", To: "content", Default: "", Convert: viewmodel.String},
	{From: "is_published", To: "published", Default: false, Convert: viewmodel.Bool},
	{From: "author", To: "user", Default: viewmodel.UnknownOwner(), Convert: viewmodel.Owner},
	{From: "created_at", To: "createdAt", Convert: viewmodel.Timestamp},
}

func postStatus(p model.Post) string {
	if p.Published {
		return "published"
	}
	return "draft"
}

func Posts() *Def[model.Post] {
	res := &listsync.Resource[model.Post]{
		Name:  "posts",
		Fetch: fetcher[model.Post]((*api.Client).GetPosts, postMapping, nil),
		ID:    func(p model.Post) string { return p.ID },
		Owner: func(p model.Post) model.User { return p.User },
		Search: []func(model.Post) string{
			func(p model.Post) string { return p.Title },
			func(p model.Post) string { return p.Slug },
			func(p model.Post) string { return p.User.Name },
		},
		Filters: map[string]listsync.Predicate[model.Post]{
			"published":             listsync.Equals(func(p model.Post) string { return strconv.FormatBool(p.Published) }),
			"category":              listsync.Equals(func(p model.Post) string { return p.Category }),
			listsync.FilterDateFrom: listsync.DateFrom(func(p model.Post) time.Time { return p.CreatedAt }),
			listsync.FilterDateTo:   listsync.DateTo(func(p model.Post) time.Time { return p.CreatedAt }),
		},
		Actions: map[listsync.Kind]listsync.Action[model.Post]{
			listsync.KindDelete: removeAction((*api.Client).DeletePost, func(p model.Post) string { return p.ID }, "Post deleted"),
			listsync.KindTogglePublish: {
				Call: func(ctx context.Context, c *api.Client, p model.Post, _ listsync.Payload) error {
					return c.TogglePublishPost(ctx, p.ID)
				},
				Apply: func(p *model.Post, _ listsync.Payload) { p.Published = !p.Published },
				Done:  "Publication status changed",
			},
		},
	}
	return &Def[model.Post]{
		Resource: res,
		Key:      "posts",
		Title:    "Posts",
		Status:   postStatus,
		Columns: []Column[model.Post]{
			{Title: "Title", Width: 36, Value: func(p model.Post) string { return p.Title }},
			{Title: "Category", Width: 14, Value: func(p model.Post) string { return p.Category }},
			{Title: "Published", Width: 9, Value: func(p model.Post) string { return yesNo(p.Published) }},
			{Title: "Author", Width: 20, Value: func(p model.Post) string { return p.User.Name }},
			{Title: "Created", Width: 16, Value: func(p model.Post) string { return date(p.CreatedAt) }},
		},
		Details: func(p model.Post) []Detail {
			return []Detail{
				{"ID", p.ID},
				{"Title", p.Title},
				{"Slug", p.Slug},
				{"Category", p.Category},
				{"Published", yesNo(p.Published)},
				{"Author", owner(p.User)},
				{"Created", date(p.CreatedAt)},
				{"Excerpt", p.Excerpt},
			}
		},
		Choices: map[string][]string{
			"published": {listsync.All, "true", "false"},
		},
	}
}
