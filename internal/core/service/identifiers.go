package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	lowerAlnum       = "abcdefghijklmnopqrstuvwxyz0123456789"
	usernameIDSize   = 8
	slugSuffixSize   = 6
	maxSlugBaseRunes = 120
	maxIDAttempts    = 5
)

// generateUsername returns a random username of the form user-xxxxxxxx that
// is not taken according to exists.
func generateUsername(ctx context.Context, exists func(context.Context, string) (bool, error)) (string, error) {
	return uniqueIdentifier(ctx, exists, func() string {
		return "user-" + gonanoid.MustGenerate(lowerAlnum, usernameIDSize)
	})
}

// generateSlug turns a title into a url slug with a random suffix, e.g.
// "Hello World" -> "hello-world-k3x9ab".
func generateSlug(ctx context.Context, title string, exists func(context.Context, string) (bool, error)) (string, error) {
	base := slug.Make(title)
	if r := []rune(base); len(r) > maxSlugBaseRunes {
		base = strings.TrimRight(string(r[:maxSlugBaseRunes]), "-")
	}
	if base == "" {
		base = "blog"
	}
	return uniqueIdentifier(ctx, exists, func() string {
		return base + "-" + gonanoid.MustGenerate(lowerAlnum, slugSuffixSize)
	})
}

func uniqueIdentifier(ctx context.Context, exists func(context.Context, string) (bool, error), next func() string) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		candidate := next()
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free identifier after %d attempts", maxIDAttempts)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
