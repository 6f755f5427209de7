package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/univ-portal/portal-inbox/internal/colors"
)

func TestRunExitCodes(t *testing.T) {
	var console bytes.Buffer
	colors.SetOutput(&console, &console)
	t.Cleanup(func() { colors.SetOutput(nil, nil) })

	assert.Equal(t, 0, run(func(ctx context.Context) error {
		assert.NoError(t, ctx.Err())
		return nil
	}))
	assert.Empty(t, console.String())

	assert.Equal(t, 1, run(func(context.Context) error {
		return fmt.Errorf("sync: %w", errNoUser)
	}))
	assert.Contains(t, console.String(), "no authenticated user")
	assert.Contains(t, console.String(), "PORTAL_INBOX_USER_ID")
}
