package domain

import "time"

// BlogStatus is the publication state of a blog post.
type BlogStatus string

const (
	BlogDraft     BlogStatus = "draft"
	BlogPublished BlogStatus = "published"
)

// BlogCounter names a counter field of a blog that is updated atomically.
type BlogCounter string

const (
	CounterViews    BlogCounter = "viewsCount"
	CounterLikes    BlogCounter = "likesCount"
	CounterComments BlogCounter = "commentsCount"
)

// Banner references the cover image of a blog in object storage.
type Banner struct {
	PublicID string `json:"publicId,omitempty"`
	URL      string `json:"url"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// Blog is a post written by an admin author.
type Blog struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Content       string     `json:"content"`
	Banner        Banner     `json:"banner"`
	AuthorID      string     `json:"author"`
	ViewsCount    int64      `json:"viewsCount"`
	LikesCount    int64      `json:"likesCount"`
	CommentsCount int64      `json:"commentsCount"`
	Status        BlogStatus `json:"status"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// VisibleTo reports whether a viewer with the given role may read the blog.
// Drafts are hidden from regular users.
func (b *Blog) VisibleTo(role string) bool {
	return !(role == RoleUser && b.Status == BlogDraft)
}

// ManageableBy reports whether the viewer may edit or delete the blog.
func (b *Blog) ManageableBy(userID, role string) bool {
	return b.AuthorID == userID || role == RoleAdmin
}

// BlogFilter narrows blog listings.
type BlogFilter struct {
	AuthorID string
	Status   BlogStatus
}

// Page carries pagination parameters.
type Page struct {
	Limit  int
	Offset int
}
