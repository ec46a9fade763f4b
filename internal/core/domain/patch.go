package domain

// SocialLinksPatch carries the optional social link changes of a profile update.
type SocialLinksPatch struct {
	Website   *string
	LinkedIn  *string
	Facebook  *string
	Instagram *string
	YouTube   *string
	X         *string
}

// UserPatch is a partial profile update. Nil fields are left untouched.
// PasswordHash is filled by the service after hashing the plain password.
type UserPatch struct {
	Email        *string
	Username     *string
	PasswordHash *string
	FirstName    *string
	LastName     *string
	SocialLinks  *SocialLinksPatch
}

// Apply merges the patch into u.
func (p UserPatch) Apply(u *User) {
	set(&u.Email, p.Email)
	set(&u.Username, p.Username)
	set(&u.PasswordHash, p.PasswordHash)
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	if s := p.SocialLinks; s != nil {
		set(&u.SocialLinks.Website, s.Website)
		set(&u.SocialLinks.LinkedIn, s.LinkedIn)
		set(&u.SocialLinks.Facebook, s.Facebook)
		set(&u.SocialLinks.Instagram, s.Instagram)
		set(&u.SocialLinks.YouTube, s.YouTube)
		set(&u.SocialLinks.X, s.X)
	}
}

// BlogPatch is a partial blog update. Content is expected to be sanitised
// before the patch is applied.
type BlogPatch struct {
	Title   *string
	Content *string
	Status  *BlogStatus
	Banner  *Banner
}

// Apply merges the patch into b.
func (p BlogPatch) Apply(b *Blog) {
	set(&b.Title, p.Title)
	set(&b.Content, p.Content)
	set(&b.Status, p.Status)
	set(&b.Banner, p.Banner)
}

// Empty reports whether the patch changes nothing.
func (p BlogPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Status == nil && p.Banner == nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
