package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	t.Run("plain address", func(t *testing.T) {
		c := InitRedis(mr.Addr())
		require.NotNil(t, c)
		assert.Same(t, c, GetClient())
		assert.NoError(t, c.Set(context.Background(), "k", "v", 0).Err())
	})

	t.Run("url form", func(t *testing.T) {
		c := InitRedis("redis://" + mr.Addr() + "/0")
		require.NotNil(t, c)
		assert.Equal(t, "v", c.Get(context.Background(), "k").Val())
	})

	t.Run("invalid url keeps client nil", func(t *testing.T) {
		assert.Nil(t, InitRedis("redis://%zz"))
		assert.Nil(t, GetClient())
	})
}
