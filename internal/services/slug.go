// slug.go derives URL-safe team slugs and disambiguates collisions.
package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/freelancehub/freelancehub/internal/db/repositories"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases the name, collapses every run of non-alphanumeric
// characters into a single hyphen, and trims leading/trailing hyphens.
// A name with no usable characters yields "team".
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = nonAlphanumeric.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "team"
	}
	return slug
}

// SlugAllocator derives a unique slug for a team name. Allocation is a pure
// derivation plus one existence read; it does not guarantee uniqueness under
// concurrent allocation of the same name within the same instant, so the
// creating transaction re-checks via the slug unique constraint and the caller
// retries once with a forced disambiguator on conflict.
type SlugAllocator struct {
	teams *repositories.TeamRepository

	// now is swapped in tests for a deterministic disambiguator
	now func() time.Time
}

// NewSlugAllocator creates a slug allocator backed by the team repository.
func NewSlugAllocator(teams *repositories.TeamRepository) *SlugAllocator {
	return &SlugAllocator{teams: teams, now: time.Now}
}

// Allocate returns a slug for the name, appending a time-derived disambiguator
// when the plain candidate is already taken.
func (a *SlugAllocator) Allocate(ctx context.Context, name string) (string, error) {
	candidate := Slugify(name)

	exists, err := a.teams.SlugExists(ctx, candidate)
	if err != nil {
		return "", err
	}
	if !exists {
		return candidate, nil
	}

	return a.Disambiguate(candidate), nil
}

// AllocateExcluding behaves like Allocate but treats a slug already held by
// the given team as free. Used on rename so a team keeps its slug when the
// new name derives to the same one.
func (a *SlugAllocator) AllocateExcluding(ctx context.Context, name, teamID string) (string, error) {
	candidate := Slugify(name)

	holder, err := a.teams.GetBySlug(ctx, candidate)
	if err != nil {
		return "", err
	}
	if holder == nil || holder.ID == teamID {
		return candidate, nil
	}

	return a.Disambiguate(candidate), nil
}

// Disambiguate appends a base-36 timestamp suffix to the slug.
func (a *SlugAllocator) Disambiguate(slug string) string {
	return slug + "-" + strconv.FormatInt(a.now().UnixMilli(), 36)
}
