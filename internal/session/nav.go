package session

import "strings"

type NavItem struct {
	Key   string
	Title string
	// Permission is the access entry required for admins. Empty means every
	// privileged role sees the item.
	Permission string
}

var NavItems = []NavItem{
	{Key: "overview", Title: "Overview"},
	{Key: "users", Title: "Users", Permission: "users"},
	{Key: "links", Title: "Links", Permission: "links"},
	{Key: "qrcodes", Title: "QR codes", Permission: "qrcodes"},
	{Key: "files", Title: "Files", Permission: "files"},
	{Key: "subscriptions", Title: "Subscriptions", Permission: "subscriptions"},
	{Key: "transactions", Title: "Transactions", Permission: "transactions"},
	{Key: "notifications", Title: "Notifications", Permission: "notifications"},
	{Key: "posts", Title: "Blog posts", Permission: "posts"},
	{Key: "docs", Title: "API docs"},
}

// CanSee decides nav visibility.
//
// Rules:
//   - Non-privileged roles see nothing.
//   - super_admin sees every item.
//   - admin sees items without a permission key, plus items whose key is listed in Access.
func (s Session) CanSee(item NavItem) bool {
	if !s.Privileged() {
		return false
	}
	if s.SuperAdmin() {
		return true
	}
	if strings.TrimSpace(item.Permission) == "" {
		return true
	}
	return s.Access.Has(item.Permission)
}

func (s Session) VisibleNav() []NavItem {
	out := make([]NavItem, 0, len(NavItems))
	for _, it := range NavItems {
		if s.CanSee(it) {
			out = append(out, it)
		}
	}
	return out
}

func FindNav(key string) (NavItem, bool) {
	key = strings.TrimSpace(key)
	for _, it := range NavItems {
		if it.Key == key {
			return it, true
		}
	}
	return NavItem{}, false
}
