package core

import "time"

// ListingStatus identifies the moderation state of a marketplace listing.
type ListingStatus string

const (
	ListingStatusPending  ListingStatus = "pending"
	ListingStatusActive   ListingStatus = "active"
	ListingStatusRejected ListingStatus = "rejected"
	ListingStatusSold     ListingStatus = "sold"
	ListingStatusExpired  ListingStatus = "expired"
)

// NotificationType classifies a notification for rendering and filtering.
type NotificationType string

const (
	NotificationTypeSystem   NotificationType = "system"
	NotificationTypeMessage  NotificationType = "message"
	NotificationTypeFavorite NotificationType = "favorite"
	NotificationTypeOrder    NotificationType = "order"
)

// User is a marketplace account as returned by the user endpoints.
type User struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email,omitempty"`
	FullName   string     `json:"full_name,omitempty"`
	Role       string     `json:"role,omitempty"`
	IsBusiness bool       `json:"is_business,omitempty"`
	Verified   bool       `json:"verified,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// Listing is a marketplace item. Favorites endpoints return listings, so the
// same shape serves both surfaces.
type Listing struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Price       float64       `json:"price"`
	Currency    string        `json:"currency,omitempty"`
	Category    string        `json:"category,omitempty"`
	Status      ListingStatus `json:"status"`
	SellerID    string        `json:"seller_id,omitempty"`
	SellerName  string        `json:"seller_name,omitempty"`
	Images      []string      `json:"images,omitempty"`
	CreatedAt   *time.Time    `json:"created_at,omitempty"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
}

// Message is a user-to-user message thread entry.
type Message struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"sender_id"`
	SenderName  string     `json:"sender_name,omitempty"`
	RecipientID string     `json:"recipient_id"`
	Subject     string     `json:"subject,omitempty"`
	Content     string     `json:"content"`
	Read        bool       `json:"read"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// NewMessage is the payload for sending a message.
type NewMessage struct {
	RecipientID string `json:"recipient_id"`
	Subject     string `json:"subject,omitempty"`
	Content     string `json:"content"`
}

// Notification is an in-app notification for a user.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message,omitempty"`
	Type      NotificationType `json:"type,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt *time.Time       `json:"created_at,omitempty"`
}

// NewNotification is the payload for creating a notification.
type NewNotification struct {
	Title   string           `json:"title"`
	Message string           `json:"message,omitempty"`
	Type    NotificationType `json:"type,omitempty"`
}

// LoginResult is the response of a successful password login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
