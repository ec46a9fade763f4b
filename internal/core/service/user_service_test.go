package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

type userFixture struct {
	*contentFixture
	users  *stubUserRepo
	ledger *stubLedger
	subs   *stubSubscriberRepo
	svc    *UserService
}

func newUserFixture() *userFixture {
	f := &userFixture{
		contentFixture: newContentFixture(),
		users:          newStubUserRepo(),
		ledger:         newStubLedger(),
		subs:           &stubSubscriberRepo{},
	}
	f.svc = NewUserService(f.users, f.blogs, f.comments, f.likes, f.ledger, f.subs, f.storage, zerolog.Nop())
	return f
}

func (f *userFixture) addUser(t *testing.T, email, username string) *domain.User {
	t.Helper()
	now := time.Now()
	u, err := f.users.Create(context.Background(), &domain.User{Email: email, Username: username, Role: domain.RoleUser, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func strPtr(s string) *string { return &s }

func TestUserService_Update_PartialPatch(t *testing.T) {
	f := newUserFixture()
	u := f.addUser(t, "ann@x.com", "ann")

	updated, err := f.svc.Update(context.Background(), u.ID, ports.UpdateUserInput{
		FirstName:   strPtr("Ann"),
		Password:    strPtr("new-password"),
		SocialLinks: &domain.SocialLinksPatch{Website: strPtr("https://ann.dev")},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FirstName != "Ann" || updated.Email != "ann@x.com" || updated.Username != "ann" {
		t.Fatalf("unexpected user after patch: %+v", updated)
	}
	if updated.SocialLinks.Website != "https://ann.dev" {
		t.Fatalf("social link not applied")
	}
	if bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("new-password")) != nil {
		t.Fatalf("password not re-hashed")
	}
}

func TestUserService_Update_Conflicts(t *testing.T) {
	f := newUserFixture()
	u := f.addUser(t, "ann@x.com", "ann")
	f.addUser(t, "bob@x.com", "bob")

	if _, err := f.svc.Update(context.Background(), u.ID, ports.UpdateUserInput{Email: strPtr("BOB@x.com")}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := f.svc.Update(context.Background(), u.ID, ports.UpdateUserInput{Username: strPtr("bob")}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if _, err := f.svc.Update(context.Background(), u.ID, ports.UpdateUserInput{Email: strPtr("ann@x.com")}); err != nil {
		t.Fatalf("keeping own email must not conflict: %v", err)
	}
}

func TestUserService_Delete_Cascades(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	victim := f.addUser(t, "vic@x.com", "vic")
	other := f.addUser(t, "oth@x.com", "oth")
	_, _ = f.subs.Create(ctx, &domain.Subscriber{Email: victim.Email})
	_ = f.ledger.Record(ctx, "token-1", victim.ID)
	_ = f.ledger.Record(ctx, "token-2", other.ID)

	victimView := ports.Viewer{UserID: victim.ID, Role: domain.RoleAdmin}
	otherView := ports.Viewer{UserID: other.ID, Role: domain.RoleAdmin}

	own, err := f.blogSvc.Create(ctx, victimView, ports.CreateBlogInput{Title: "Own", Content: "x", Status: domain.BlogPublished})
	if err != nil {
		t.Fatalf("create own blog: %v", err)
	}
	foreign, err := f.blogSvc.Create(ctx, otherView, ports.CreateBlogInput{Title: "Foreign", Content: "x", Status: domain.BlogPublished})
	if err != nil {
		t.Fatalf("create foreign blog: %v", err)
	}

	_, _ = f.comSvc.Create(ctx, otherView, own.ID, "on victim blog")
	_, _ = f.comSvc.Create(ctx, victimView, foreign.ID, "by victim")
	_, _ = f.comSvc.Create(ctx, otherView, foreign.ID, "by other")
	_, _ = f.likeSvc.Like(ctx, foreign.ID, victim.ID)
	_, _ = f.likeSvc.Like(ctx, foreign.ID, other.ID)
	_, _ = f.likeSvc.Like(ctx, own.ID, other.ID)

	if err := f.svc.Delete(ctx, victim.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.users.FindByID(ctx, victim.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("user still present")
	}
	if _, err := f.blogs.FindByID(ctx, own.ID); !errors.Is(err, domain.ErrBlogNotFound) {
		t.Fatalf("owned blog still present")
	}
	if len(f.storage.deleted) != 1 || f.storage.deleted[0] != own.Banner.PublicID {
		t.Fatalf("owned banner not removed: %v", f.storage.deleted)
	}
	if left, _ := f.comments.ListByBlog(ctx, own.ID); len(left) != 0 {
		t.Fatalf("comments on owned blog left behind")
	}
	if f.likes.countForBlog(own.ID) != 0 {
		t.Fatalf("likes on owned blog left behind")
	}

	stored, _ := f.blogs.FindByID(ctx, foreign.ID)
	if stored.LikesCount != 1 || stored.CommentsCount != 1 {
		t.Fatalf("foreign counters not adjusted: likes=%d comments=%d", stored.LikesCount, stored.CommentsCount)
	}
	if f.likes.countForBlog(foreign.ID) != 1 {
		t.Fatalf("victim like on foreign blog not removed")
	}

	if ok, _ := f.ledger.Exists(ctx, "token-1"); ok {
		t.Fatalf("victim refresh token still recorded")
	}
	if ok, _ := f.ledger.Exists(ctx, "token-2"); !ok {
		t.Fatalf("other user's token must survive")
	}
	if emails, _ := f.subs.ListEmails(ctx); len(emails) != 0 {
		t.Fatalf("subscriber not removed: %v", emails)
	}
}

func TestUserService_Delete_Unknown(t *testing.T) {
	f := newUserFixture()
	if err := f.svc.Delete(context.Background(), "nope"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
