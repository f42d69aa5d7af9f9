//go:build integration

package refdata

import (
	"context"
	"testing"
	"time"

	"github.com/Ramsey-B/thistle/internal/testutil/containers"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_RedisCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}

	client := containers.NewRedisClient(t, testLogger)
	lookup := newLookup()
	validator := NewValidator(client, lookup, time.Minute, testLogger)
	ctx := context.Background()

	refs := []models.CodeRef{
		{Group: models.GroupRestriction, Code: "BAN"},
		{Group: models.GroupSocialRelationship, Code: "FRI"},
	}

	require.NoError(t, validator.ValidateAll(ctx, refs...))
	assert.Equal(t, 2, lookup.calls)

	cached, err := client.Get(ctx, "refdata:RESTRICTION:BAN")
	require.NoError(t, err)
	assert.Equal(t, "1", cached)

	require.NoError(t, validator.ValidateAll(ctx, refs...))
	assert.Equal(t, 2, lookup.calls, "second pass is served from redis")

	err = validator.ValidateAll(ctx, models.CodeRef{Group: models.GroupRestriction, Code: "NOPE"})
	require.Error(t, err)

	cached, err = client.Get(ctx, "refdata:RESTRICTION:NOPE")
	require.NoError(t, err)
	assert.Equal(t, "0", cached)

	require.NoError(t, client.Invalidate(ctx, "refdata:RESTRICTION:BAN"))
	_, err = client.Get(ctx, "refdata:RESTRICTION:BAN")
	assert.ErrorIs(t, err, redis.Nil)

	require.NoError(t, validator.ValidateAll(ctx, refs[0]))
	assert.Equal(t, 4, lookup.calls, "invalidated code is looked up again")
}
