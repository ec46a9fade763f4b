package domain

import "time"

type Comment struct {
	ID         string    `json:"id"`
	BlogID     string    `json:"blogId"`
	UserID     string    `json:"userId"`
	Content    string    `json:"content"`
	LikesCount int64     `json:"likesCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Like struct {
	ID        string    `json:"id"`
	BlogID    string    `json:"blogId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Subscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// BlogCount is the number of documents a user holds against one blog.
type BlogCount struct {
	BlogID string
	Count  int64
}
