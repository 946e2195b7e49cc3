package domain

import "time"

// Comment belongs to exactly one post and one commenter. Comments are
// removed together with their post.
type Comment struct {
	ID          int64
	PostID      int64
	CommenterID int64
	Body        string
	PubDate     time.Time
	CreatedAt   time.Time

	// Populated by the service layer for serialization.
	Commenter *User
}
