package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

// ----------------------------------------------------------------------------
// users
// ----------------------------------------------------------------------------

type stubUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
		if u.Username == user.Username {
			return nil, domain.ErrUsernameTaken
		}
	}
	r.seq++
	created := cloneUser(user)
	created.ID = fmt.Sprintf("u%d", r.seq)
	r.users[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for id, u := range r.users {
		if id == user.ID {
			continue
		}
		if u.Email == user.Email {
			return domain.ErrUserExists
		}
		if u.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) List(_ context.Context, page domain.Page) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := []*domain.User{}
	for i, id := range ids {
		if i >= page.Offset && len(out) < page.Limit {
			out = append(out, cloneUser(r.users[id]))
		}
	}
	return out, int64(len(ids)), nil
}

func (r *stubUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// ----------------------------------------------------------------------------
// ledger
// ----------------------------------------------------------------------------

type stubLedger struct {
	mu     sync.Mutex
	tokens map[string]string
	err    error
}

func newStubLedger() *stubLedger {
	return &stubLedger{tokens: make(map[string]string)}
}

func (l *stubLedger) Record(_ context.Context, token, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.tokens[token] = userID
	return nil
}

func (l *stubLedger) Revoke(_ context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.tokens, token)
	return nil
}

func (l *stubLedger) Exists(_ context.Context, token string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.tokens[token]
	return ok, nil
}

func (l *stubLedger) RevokeAllForUser(_ context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for token, owner := range l.tokens {
		if owner == userID {
			delete(l.tokens, token)
			n++
		}
	}
	return n, nil
}

func (l *stubLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tokens)
}

// ----------------------------------------------------------------------------
// subscribers and jobs
// ----------------------------------------------------------------------------

type stubSubscriberRepo struct {
	mu     sync.Mutex
	emails []string
}

func (r *stubSubscriberRepo) Create(_ context.Context, sub *domain.Subscriber) (*domain.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.emails {
		if e == sub.Email {
			return nil, domain.ErrSubscriberExists
		}
	}
	r.emails = append(r.emails, sub.Email)
	created := *sub
	created.ID = fmt.Sprintf("s%d", len(r.emails))
	return &created, nil
}

func (r *stubSubscriberRepo) ListEmails(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.emails...), nil
}

func (r *stubSubscriberRepo) DeleteByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.emails {
		if e == email {
			r.emails = append(r.emails[:i], r.emails[i+1:]...)
			return nil
		}
	}
	return domain.ErrSubscriberNotFound
}

type stubScheduler struct {
	mu   sync.Mutex
	jobs []*domain.Job
	err  error
}

func (s *stubScheduler) Now(ctx context.Context, name string, data map[string]any) (*domain.Job, error) {
	return s.Schedule(ctx, name, data, time.Now())
}

func (s *stubScheduler) Schedule(_ context.Context, name string, data map[string]any, when time.Time) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	job := &domain.Job{ID: fmt.Sprintf("j%d", len(s.jobs)+1), Name: name, Data: data, NextRunAt: when, Status: domain.JobPending}
	s.jobs = append(s.jobs, job)
	return job, nil
}

func (s *stubScheduler) named(name string) []*domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Job
	for _, j := range s.jobs {
		if j.Name == name {
			out = append(out, j)
		}
	}
	return out
}

// ----------------------------------------------------------------------------
// content
// ----------------------------------------------------------------------------

type stubBlogRepo struct {
	mu    sync.Mutex
	seq   int
	blogs map[string]*domain.Blog
}

func newStubBlogRepo() *stubBlogRepo {
	return &stubBlogRepo{blogs: make(map[string]*domain.Blog)}
}

func cloneBlog(b *domain.Blog) *domain.Blog {
	clone := *b
	return &clone
}

func (r *stubBlogRepo) Create(_ context.Context, blog *domain.Blog) (*domain.Blog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	created := cloneBlog(blog)
	if created.ID == "" {
		created.ID = fmt.Sprintf("b%d", r.seq)
	}
	r.blogs[created.ID] = cloneBlog(created)
	return created, nil
}

func (r *stubBlogRepo) FindByID(_ context.Context, id string) (*domain.Blog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.blogs[id]; ok {
		return cloneBlog(b), nil
	}
	return nil, domain.ErrBlogNotFound
}

func (r *stubBlogRepo) FindBySlug(_ context.Context, slug string) (*domain.Blog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.blogs {
		if b.Slug == slug {
			return cloneBlog(b), nil
		}
	}
	return nil, domain.ErrBlogNotFound
}

func (r *stubBlogRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	_, err := r.FindBySlug(ctx, slug)
	return err == nil, nil
}

func (r *stubBlogRepo) List(_ context.Context, filter domain.BlogFilter, page domain.Page) ([]*domain.Blog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Blog
	for _, b := range r.blogs {
		if filter.AuthorID != "" && b.AuthorID != filter.AuthorID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, cloneBlog(b))
	}
	return out, int64(len(out)), nil
}

func (r *stubBlogRepo) ListByAuthor(ctx context.Context, authorID string) ([]*domain.Blog, error) {
	out, _, err := r.List(ctx, domain.BlogFilter{AuthorID: authorID}, domain.Page{})
	return out, err
}

func (r *stubBlogRepo) Update(_ context.Context, blog *domain.Blog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blogs[blog.ID]; !ok {
		return domain.ErrBlogNotFound
	}
	r.blogs[blog.ID] = cloneBlog(blog)
	return nil
}

func (r *stubBlogRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blogs[id]; !ok {
		return domain.ErrBlogNotFound
	}
	delete(r.blogs, id)
	return nil
}

func (r *stubBlogRepo) DeleteByAuthor(_ context.Context, authorID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, b := range r.blogs {
		if b.AuthorID == authorID {
			delete(r.blogs, id)
			n++
		}
	}
	return n, nil
}

func (r *stubBlogRepo) IncrementCounter(_ context.Context, id string, counter domain.BlogCounter, delta int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blogs[id]
	if !ok {
		return 0, domain.ErrBlogNotFound
	}
	switch counter {
	case domain.CounterLikes:
		b.LikesCount += delta
		return b.LikesCount, nil
	case domain.CounterComments:
		b.CommentsCount += delta
		return b.CommentsCount, nil
	default:
		b.ViewsCount += delta
		return b.ViewsCount, nil
	}
}

type stubCommentRepo struct {
	mu       sync.Mutex
	seq      int
	comments map[string]*domain.Comment
}

func newStubCommentRepo() *stubCommentRepo {
	return &stubCommentRepo{comments: make(map[string]*domain.Comment)}
}

func (r *stubCommentRepo) Create(_ context.Context, c *domain.Comment) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	created := *c
	created.ID = fmt.Sprintf("c%d", r.seq)
	stored := created
	r.comments[created.ID] = &stored
	return &created, nil
}

func (r *stubCommentRepo) FindByID(_ context.Context, id string) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.comments[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, domain.ErrCommentNotFound
}

func (r *stubCommentRepo) ListByBlog(_ context.Context, blogID string) ([]*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Comment{}
	for _, c := range r.comments {
		if c.BlogID == blogID {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubCommentRepo) List(_ context.Context, _ domain.Page) ([]*domain.Comment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Comment{}
	for _, c := range r.comments {
		clone := *c
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *stubCommentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return domain.ErrCommentNotFound
	}
	delete(r.comments, id)
	return nil
}

func (r *stubCommentRepo) DeleteByBlogs(_ context.Context, blogIDs []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.comments {
		for _, b := range blogIDs {
			if c.BlogID == b {
				delete(r.comments, id)
				n++
				break
			}
		}
	}
	return n, nil
}

func (r *stubCommentRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.comments {
		if c.UserID == userID {
			delete(r.comments, id)
			n++
		}
	}
	return n, nil
}

func (r *stubCommentRepo) CountByBlogForUser(_ context.Context, userID string) ([]domain.BlogCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, c := range r.comments {
		if c.UserID == userID {
			counts[c.BlogID]++
		}
	}
	out := []domain.BlogCount{}
	for blogID, n := range counts {
		out = append(out, domain.BlogCount{BlogID: blogID, Count: n})
	}
	return out, nil
}

type stubLikeRepo struct {
	mu    sync.Mutex
	likes map[string]domain.Like
}

func newStubLikeRepo() *stubLikeRepo {
	return &stubLikeRepo{likes: make(map[string]domain.Like)}
}

func likeKey(blogID, userID string) string { return blogID + "/" + userID }

func (r *stubLikeRepo) Create(_ context.Context, like *domain.Like) (*domain.Like, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := likeKey(like.BlogID, like.UserID)
	if _, ok := r.likes[key]; ok {
		return nil, domain.ErrAlreadyLiked
	}
	created := *like
	created.ID = key
	r.likes[key] = created
	return &created, nil
}

func (r *stubLikeRepo) Delete(_ context.Context, blogID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := likeKey(blogID, userID)
	if _, ok := r.likes[key]; !ok {
		return domain.ErrLikeNotFound
	}
	delete(r.likes, key)
	return nil
}

func (r *stubLikeRepo) DeleteByBlogs(_ context.Context, blogIDs []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for key, l := range r.likes {
		for _, b := range blogIDs {
			if l.BlogID == b {
				delete(r.likes, key)
				n++
				break
			}
		}
	}
	return n, nil
}

func (r *stubLikeRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for key, l := range r.likes {
		if l.UserID == userID {
			delete(r.likes, key)
			n++
		}
	}
	return n, nil
}

func (r *stubLikeRepo) CountByBlogForUser(_ context.Context, userID string) ([]domain.BlogCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, l := range r.likes {
		if l.UserID == userID {
			counts[l.BlogID]++
		}
	}
	out := []domain.BlogCount{}
	for blogID, n := range counts {
		out = append(out, domain.BlogCount{BlogID: blogID, Count: n})
	}
	return out, nil
}

func (r *stubLikeRepo) countForBlog(blogID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.likes {
		if l.BlogID == blogID {
			n++
		}
	}
	return n
}

// ----------------------------------------------------------------------------
// collaborators
// ----------------------------------------------------------------------------

type stubStorage struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
	seq      int
}

func (s *stubStorage) Upload(_ context.Context, folder string, file ports.Upload) (domain.Banner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if file.Body != nil {
		_, _ = io.Copy(io.Discard, file.Body)
	}
	s.seq++
	id := fmt.Sprintf("%s/banner-%d", folder, s.seq)
	s.uploaded = append(s.uploaded, id)
	return domain.Banner{PublicID: id, URL: "https://cdn.example.com/" + id}, nil
}

func (s *stubStorage) Delete(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, publicID)
	return nil
}

func (s *stubStorage) DeleteMany(_ context.Context, publicIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, publicIDs...)
	return nil
}

type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(html string) string { return html }

type recordingSender struct {
	mu     sync.Mutex
	sent   []ports.EmailMessage
	failAt int // 1-based call index that fails; 0 never fails
}

func (s *recordingSender) Send(_ context.Context, msg ports.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAt > 0 && len(s.sent)+1 == s.failAt {
		return fmt.Errorf("provider rejected batch %d", s.failAt)
	}
	s.sent = append(s.sent, msg)
	return nil
}
