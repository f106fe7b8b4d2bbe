//go:build dev

package trace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_RecordsWhenEnvSet(t *testing.T) {
	out := filepath.Join(t.TempDir(), "trace.out")
	t.Setenv("FIMCACHE_TRACE", out)

	stop := Init()
	require.True(t, IsEnabled())

	ctx, end := Task(context.Background(), "trigger")
	Region(ctx, "select")()
	Log(ctx, "status", "served")
	end()

	stop()
	assert.False(t, IsEnabled())

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestInit_StopIsIdempotent(t *testing.T) {
	t.Setenv("FIMCACHE_TRACE", filepath.Join(t.TempDir(), "trace.out"))

	stop := Init()
	stop()
	stop()
	assert.False(t, IsEnabled())
}
