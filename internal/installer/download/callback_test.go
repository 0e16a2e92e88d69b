package download

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallbackFromContext(t *testing.T) {
	t.Parallel()

	t.Run("unset returns nil", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		assert.Nil(t, ProgressFromContext(ctx))
		assert.Nil(t, CallbackFromContext[StageCallback](ctx))
	})

	t.Run("progress is invocable", func(t *testing.T) {
		t.Parallel()

		var gotDownloaded, gotTotal int64
		ctx := WithCallback(context.Background(), ProgressCallback(func(downloaded, total int64) {
			gotDownloaded = downloaded
			gotTotal = total
		}))

		cb := ProgressFromContext(ctx)
		if assert.NotNil(t, cb) {
			cb(100, 200)
		}
		assert.Equal(t, int64(100), gotDownloaded)
		assert.Equal(t, int64(200), gotTotal)
	})

	t.Run("types are isolated", func(t *testing.T) {
		t.Parallel()

		var stages []string
		ctx := WithCallback(context.Background(), StageCallback(func(stage string) {
			stages = append(stages, stage)
		}))

		assert.Nil(t, ProgressFromContext(ctx))
		cb := CallbackFromContext[StageCallback](ctx)
		if assert.NotNil(t, cb) {
			cb("extract")
		}
		assert.Equal(t, []string{"extract"}, stages)
	})
}
