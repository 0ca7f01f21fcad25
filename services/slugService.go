package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/doug-martin/goqu/v9"
	"golang.org/x/text/unicode/norm"
)

const (
	slugMaxLen      = 150
	slugMaxAttempts = 1000
)

var (
	reSlugNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reSlugHyphens  = regexp.MustCompile(`-+`)
)

// Slugify turns free text into [a-z0-9-], stripping diacritics. Falls back to
// "item" when nothing usable is left.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	s = reSlugNonAlnum.ReplaceAllString(s, "-")
	s = reSlugHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if utf8.RuneCountInString(s) > slugMaxLen {
		s = strings.Trim(s[:slugMaxLen], "-")
	}
	if s == "" {
		s = "item"
	}
	return s
}

type selector interface {
	From(from ...interface{}) *goqu.SelectDataset
}

// SlugScope describes where a slug has to be unique.
type SlugScope struct {
	Table string
	// ExcludeID skips the row being updated. Zero means no exclusion.
	ExcludeID int
	// SkipDeleted ignores soft-deleted rows (is_deleted = TRUE).
	SkipDeleted bool
}

// UniqueSlug probes base, base-1, base-2, ... until a value unused in scope is found.
func UniqueSlug(ctx context.Context, db selector, scope SlugScope, title string) (string, error) {
	if scope.Table == "" {
		return "", errors.New("slug scope: table is required")
	}

	base := Slugify(title)
	for i := 0; i < slugMaxAttempts; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}

		taken, err := slugTaken(ctx, db, scope, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique slug for %q after %d attempts", base, slugMaxAttempts)
}

func slugTaken(ctx context.Context, db selector, scope SlugScope, candidate string) (bool, error) {
	query := db.From(scope.Table).
		Select(goqu.COUNT("*")).
		Where(goqu.C("slug").Eq(candidate))

	if scope.ExcludeID > 0 {
		query = query.Where(goqu.C("id").Neq(scope.ExcludeID))
	}
	if scope.SkipDeleted {
		query = query.Where(goqu.C("is_deleted").IsFalse())
	}

	var count int
	if _, err := query.ScanValContext(ctx, &count); err != nil {
		return false, err
	}
	return count > 0, nil
}
