package model

import "time"

// UnknownUserName is what the backend's own UI shows for items whose owner was deleted.
const UnknownUserName = "Utilisateur inconnu"

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// User is the minimal owner projection carried by every list item.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func UnknownUser() User {
	return User{ID: "", Name: UnknownUserName, Email: ""}
}

type Link struct {
	ID          string     `json:"id"`
	ShortCode   string     `json:"shortCode"`
	ShortURL    string     `json:"shortUrl"`
	OriginalURL string     `json:"originalUrl"`
	Clicks      int        `json:"clicks"`
	Status      string     `json:"status"`
	User        User       `json:"user"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

type QRCode struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Content   string     `json:"content"`
	Scans     int        `json:"scans"`
	Status    string     `json:"status"`
	User      User       `json:"user"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type SharedFile struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Code      string     `json:"code"`
	Type      string     `json:"type"`
	Size      int64      `json:"size"`
	Downloads int        `json:"downloads"`
	Status    string     `json:"status"`
	User      User       `json:"user"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

type Transaction struct {
	ID        string            `json:"id"`
	Reference string            `json:"reference"`
	Amount    float64           `json:"amount"`
	Currency  string            `json:"currency"`
	Method    string            `json:"method"`
	Plan      string            `json:"plan"`
	Status    TransactionStatus `json:"status"`
	User      User              `json:"user"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Account is a row of the user-management screen. Its owner projection is itself.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Plan      string    `json:"plan"`
	Active    bool      `json:"active"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a Account) AsUser() User {
	return User{ID: a.ID, Name: a.Name, Email: a.Email}
}

type Subscription struct {
	ID        string     `json:"id"`
	Plan      string     `json:"plan"`
	PlanID    string     `json:"planId"`
	Status    string     `json:"status"`
	Price     float64    `json:"price"`
	Interval  string     `json:"interval"`
	User      User       `json:"user"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Category  string    `json:"category"`
	Excerpt   string    `json:"excerpt"`
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

type Plan struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Interval string  `json:"interval"`
}

// Notification is one entry of the broadcast history.
type Notification struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	Audience   string    `json:"audience"`
	Recipients int       `json:"recipients"`
	SentBy     User      `json:"sentBy"`
	CreatedAt  time.Time `json:"createdAt"`
}
