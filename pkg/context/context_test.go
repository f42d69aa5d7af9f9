package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetActor(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, SystemUser, GetActor(ctx))

	ctx = WithRequest(ctx, Request{ID: "req-1", Method: "POST"})
	ctx = SetUserID(ctx, "JSMITH")
	assert.Equal(t, "JSMITH", GetActor(ctx))
	assert.Equal(t, "req-1", GetRequestID(ctx), "setting the user keeps the request id")
}

func TestLogFields(t *testing.T) {
	ctx := WithRequest(context.Background(), Request{
		ID:     "req-2",
		Method: "POST",
		Route:  "/api/v1/sync/relationships/merge",
	})

	assert.Equal(t, map[string]any{
		"request_id": "req-2",
		"method":     "POST",
		"route":      "/api/v1/sync/relationships/merge",
	}, LogFields(ctx))
	assert.Empty(t, LogFields(context.Background()))
}
