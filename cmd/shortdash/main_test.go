package main

import (
	"reflect"
	"testing"
)

func TestRewriteItemRefArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"shortdash"},
			want: []string{"shortdash"},
		},
		{
			name: "item ref first token",
			in:   []string{"shortdash", "links/12"},
			want: []string{"shortdash", "links", "show", "12"},
		},
		{
			name: "item ref after value flag",
			in:   []string{"shortdash", "--role", "admin", "qrcodes/7", "--format", "table"},
			want: []string{"shortdash", "--role", "admin", "qrcodes", "show", "7", "--format", "table"},
		},
		{
			name: "item ref after equals flag",
			in:   []string{"shortdash", "--api-url=http://x", "users/5"},
			want: []string{"shortdash", "--api-url=http://x", "users", "show", "5"},
		},
		{
			name: "item ref after bool flag",
			in:   []string{"shortdash", "--pretty", "files/a1"},
			want: []string{"shortdash", "--pretty", "files", "show", "a1"},
		},
		{
			name: "unknown resource not rewritten",
			in:   []string{"shortdash", "widgets/1"},
			want: []string{"shortdash", "widgets/1"},
		},
		{
			name: "missing id not rewritten",
			in:   []string{"shortdash", "links/"},
			want: []string{"shortdash", "links/"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"shortdash", "links", "show", "12"},
			want: []string{"shortdash", "links", "show", "12"},
		},
		{
			name: "flag value that looks like a ref is skipped",
			in:   []string{"shortdash", "--token", "links/1", "nav"},
			want: []string{"shortdash", "--token", "links/1", "nav"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := rewriteItemRefArgs(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteItemRefArgs(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
