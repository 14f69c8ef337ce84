package services

import (
	"context"
	"testing"
	"time"

	"github.com/localnerve/amo-catalog/internal/config"
	"github.com/localnerve/amo-catalog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeDescription(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{`<a href="http://example.com">example.com</a> http://example.com <b>foo</b> some text`, "&lt;b&gt;foo&lt;/b&gt; some text"},
		{"plain text", "plain text"},
		{"  spaced\n\tout  ", "spaced\n\tout"},
		{"first paragraph\n\nsecond  paragraph", "first paragraph\n\nsecond  paragraph"},
		{"see https://addons.example/x now", "see now"},
		{"see http://a.example http://b.example now", "see now"},
		{"intro\nhttp://a.example\nnext", "intro\n\nnext"},
		{"links: <a href=\"x\">x</a>\n\ndone", "links:\n\ndone"},
		{`<A HREF='x'>upper</A>kept`, "kept"},
		{"1 < 2 & 3 > 2", "1 &lt; 2 &amp; 3 &gt; 2"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, SanitizeDescription(tc.input), "input %q", tc.input)
	}
}

func TestBaseSlug(t *testing.T) {
	assert.Equal(t, "my-collection", baseSlug("", "My Collection"))
	assert.Equal(t, "collection", baseSlug("", ""))
	assert.Equal(t, "favorites~", baseSlug("favorites", "ignored"))
	assert.Equal(t, "Mobile~", baseSlug("Mobile", ""))
	assert.Equal(t, "keep_this", baseSlug("keep_this", "name"))
	assert.Len(t, baseSlug("", "a very long collection name that will not fit"), maxSlugLength)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "100!%!_done!!", escapeLike("100%_done!"))
}

func TestUserContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, UserFromContext(ctx))
	assert.Nil(t, userIDFromContext(ctx))

	user := &models.UserProfile{ID: 7, Username: "seven"}
	ctx = WithUser(ctx, user)
	assert.Same(t, user, UserFromContext(ctx))
	require.NotNil(t, userIDFromContext(ctx))
	assert.Equal(t, uint64(7), *userIDFromContext(ctx))
}

func TestCountActivityAll(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, LogActivity(ctx, db, models.ActionCreateAddon, AddonArg(1)))
	require.NoError(t, LogActivity(ctx, db, models.ActionDeleteCollection, CollectionArg(2)))

	all, err := CountActivity(ctx, db, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all)

	entries, err := ActivityFor(ctx, db, models.ActionDeleteCollection, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].UserID)
}

func TestTokens(t *testing.T) {
	token, err := GenerateToken("secret", 12, RoleUser, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), claims.UserID)
	assert.Equal(t, RoleUser, claims.Role)
	assert.True(t, claims.HasRole(RoleUser))
	assert.False(t, claims.HasRole(RoleAdmin))

	_, err = ParseToken("other", token)
	assert.ErrorIs(t, err, ErrForbidden)

	// A non-positive ttl falls back to the default lifetime.
	admin, err := GenerateToken("secret", 12, RoleAdmin, 0)
	require.NoError(t, err)
	claims, err = ParseToken("secret", admin)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(RoleUser))

	_, err = GenerateToken("secret", 1, "root", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = GenerateToken("", 1, RoleUser, time.Hour)
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	db := setupTestDB(t)
	cfg := &config.Config{DBType: "sqlite", DBDatabase: ":memory:"}

	result := HealthCheck(context.Background(), cfg, HealthDeps{DB: db})
	assert.Equal(t, "healthy", result.Status)
	assert.Equal(t, "ok", result.Database)
	assert.Equal(t, "disabled", result.Search)
	assert.Equal(t, "disabled", result.Queue)

	cfg.ESURL = "http://127.0.0.1:1"
	result = HealthCheck(context.Background(), cfg, HealthDeps{DB: db})
	assert.Equal(t, "unhealthy", result.Status)
	assert.Equal(t, "unreachable", result.Search)
	assert.Contains(t, result.ErrorMessage, "search check failed")

	result = HealthCheck(context.Background(), &config.Config{}, HealthDeps{})
	assert.Equal(t, "unhealthy", result.Status)
	assert.Equal(t, "error", result.Database)
}
