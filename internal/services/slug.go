package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/localnerve/amo-catalog/internal/models"
	"gorm.io/gorm"
)

// maxSlugLength matches the size of the collections.slug column.
const maxSlugLength = 30

// specialSlugs are the fixed slugs of the special collection types.
var specialSlugs = map[models.CollectionType]string{
	models.CollectionFavorites: "favorites",
	models.CollectionMobile:    "mobile",
}

// reservedSlugs collide with the special collection URLs and get a "~" suffix
// when requested for any other collection.
var reservedSlugs = map[string]bool{
	"favorites": true,
	"mobile":    true,
}

// collectionSlug picks the slug to store for c. Special types always use
// their fixed slug; anything else is normalised and made unique among the
// author's collections.
func collectionSlug(ctx context.Context, tx *gorm.DB, c *models.Collection, requested string) (string, error) {
	if fixed, ok := specialSlugs[c.Type]; ok {
		return fixed, nil
	}
	return uniqueSlug(ctx, tx, c.AuthorID, c.ID, baseSlug(requested, c.Name))
}

// baseSlug normalises the requested slug, deriving it from name when empty.
func baseSlug(requested, name string) string {
	s := strings.TrimSpace(requested)
	if s == "" {
		s = slug.Make(name)
	}
	if s == "" {
		s = "collection"
	}
	if reservedSlugs[strings.ToLower(s)] {
		s += "~"
	}
	return truncateSlug(s, maxSlugLength)
}

func truncateSlug(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// uniqueSlug returns base, or base-1, base-2, ... whichever is free among
// the author's other collections.
func uniqueSlug(ctx context.Context, tx *gorm.DB, authorID *uint64, excludeID uint64, base string) (string, error) {
	query := tx.WithContext(ctx).Model(&models.Collection{})
	if authorID != nil {
		query = query.Where("author_id = ?", *authorID)
	} else {
		query = query.Where("author_id IS NULL")
	}
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	// Numbered candidates may truncate base, so match on a shorter prefix.
	prefix := truncateSlug(base, maxSlugLength-6)

	var taken []string
	if err := query.
		Where("slug LIKE ? ESCAPE '!'", escapeLike(prefix)+"%").
		Pluck("slug", &taken).Error; err != nil {
		return "", err
	}

	used := make(map[string]bool, len(taken))
	for _, s := range taken {
		used[s] = true
	}
	if !used[base] {
		return base, nil
	}

	for i := 1; ; i++ {
		suffix := fmt.Sprintf("-%d", i)
		candidate := truncateSlug(base, maxSlugLength-len(suffix)) + suffix
		if !used[candidate] {
			return candidate, nil
		}
	}
}

// escapeLike escapes the LIKE wildcards in s for use with ESCAPE '!'.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
