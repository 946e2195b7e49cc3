package domain

import "time"

// Post is a school-scoped posting. SchoolID is derived from the poster's
// email domain at creation time, never taken from the request.
type Post struct {
	ID        int64
	SchoolID  int64
	PosterID  int64
	Title     string
	Body      string
	PubDate   time.Time
	CreatedAt time.Time

	// Populated by the service layer for serialization.
	Poster      *User
	CommentIDs  []int64
	Attachments []Attachment
}

// Attachment is metadata for an object stored in remote object storage
// alongside a post. The bytes live in S3; this row only locates them.
type Attachment struct {
	ID          int64
	PostID      int64
	Key         string
	Name        string
	Size        int64
	ContentType string
	CreatedAt   time.Time
}
