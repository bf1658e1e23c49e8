package broadcast

import (
	"context"
	"strings"
	"testing"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/api/apitest"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() Form {
	f := NewForm()
	f.Title = "Maintenance"
	f.Message = "The service restarts at 22:00."
	return f
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Fields
}

func TestValidate(t *testing.T) {
	require.NoError(t, validForm().Validate())

	cases := []struct {
		name  string
		edit  func(*Form)
		field string
	}{
		{"blank title", func(f *Form) { f.Title = "   " }, FieldTitle},
		{"long title", func(f *Form) { f.Title = strings.Repeat("é", MaxTitle+1) }, FieldTitle},
		{"blank message", func(f *Form) { f.Message = "" }, FieldMessage},
		{"long message", func(f *Form) { f.Message = strings.Repeat("a", MaxMessage+1) }, FieldMessage},
		{"unknown type", func(f *Form) { f.Type = "alert" }, FieldType},
		{"unknown audience", func(f *Form) { f.Audience = "vip" }, FieldAudience},
		{"user audience without id", func(f *Form) { f.Audience = AudienceUser }, FieldUserID},
		{"relative link", func(f *Form) { f.Link = "/pricing" }, FieldLink},
		{"ftp link", func(f *Form) { f.Link = "ftp://example.com/x" }, FieldLink},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := validForm()
			tc.edit(&f)
			fields := fieldErrors(t, f.Validate())
			assert.Len(t, fields, 1)
			assert.Contains(t, fields, tc.field)
		})
	}
}

func TestValidate_TitleLimitCountsRunes(t *testing.T) {
	f := validForm()
	f.Title = strings.Repeat("é", MaxTitle)
	assert.NoError(t, f.Validate())
}

func TestValidate_CollectsEveryField(t *testing.T) {
	err := Form{Audience: AudienceUser}.Validate()
	fields := fieldErrors(t, err)
	assert.Equal(t, []string{FieldMessage, FieldTitle, FieldType, FieldUserID}, sortedKeys(fields))
	assert.Contains(t, err.Error(), "title: required")
}

func sortedKeys(m map[string]string) []string {
	var out []string
	for _, k := range []string{FieldAudience, FieldLink, FieldMessage, FieldTitle, FieldType, FieldUserID} {
		if _, ok := m[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

func TestService_SendAndHistory(t *testing.T) {
	srv := apitest.New(t)
	svc := NewService(srv.Client("/super-admin"), session.Session{Role: model.RoleSuperAdmin, Token: apitest.Token})
	ctx := context.Background()

	f := validForm()
	f.Audience = AudienceUser
	f.UserID = "42"
	f.Link = "https://example.com/status"
	n, err := svc.Send(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, "Maintenance", n.Title)
	assert.Equal(t, 3, n.Recipients)
	assert.Equal(t, model.UnknownUserName, n.SentBy.Name)
	assert.False(t, n.CreatedAt.IsZero())

	hist, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "user", hist[0].Audience)
}

func TestService_InvalidFormSendsNothing(t *testing.T) {
	srv := apitest.New(t)
	svc := NewService(srv.Client("/admin"), session.Session{Role: model.RoleAdmin, Token: apitest.Token})

	_, err := svc.Send(context.Background(), Form{Type: "info", Audience: "all", Message: "x"})
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, FieldTitle)
	assert.Equal(t, 0, srv.Calls("POST /admin/notifications/send"))
}

func TestService_ServerErrorIsReturned(t *testing.T) {
	srv := apitest.New(t)
	srv.Fail("POST /admin/notifications/send", 429, "Too many broadcasts today")
	svc := NewService(srv.Client("/admin"), session.Session{Role: model.RoleAdmin, Token: apitest.Token})

	_, err := svc.Send(context.Background(), validForm())
	require.Error(t, err)
	assert.True(t, api.IsStatus(err, 429))
	assert.Equal(t, "Too many broadcasts today", api.Message(err))
}

func TestService_RoleGate(t *testing.T) {
	svc := NewService(nil, session.Session{Role: "member"})
	_, err := svc.Send(context.Background(), validForm())
	assert.ErrorIs(t, err, ErrNotPrivileged)
	_, err = svc.History(context.Background())
	assert.ErrorIs(t, err, ErrNotPrivileged)
}
