package harness

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nao1215/urldiff/internal/adapter"
	"github.com/nao1215/urldiff/internal/model"
)

// atRejecter accepts any input as a path, except inputs holding '@'.
func atRejecter() adapter.Adapter {
	return adapter.Func{AdapterName: "no-at", ParseFunc: func(_ context.Context, in []byte) model.Outcome {
		if bytes.ContainsRune(in, '@') {
			return model.Rejected("unexpected @")
		}
		return pathAccepter("").Parse(context.Background(), in)
	}}
}

func pathAccepter(name string) adapter.Adapter {
	return adapter.Func{AdapterName: name, ParseFunc: func(_ context.Context, in []byte) model.Outcome {
		var b model.Builder
		if len(in) > 0 {
			b.Path(string(in))
		}
		return model.Success(b.MustBuild())
	}}
}

func TestMinimize(t *testing.T) {
	t.Parallel()

	t.Run("shrinks to the divergence trigger", func(t *testing.T) {
		t.Parallel()

		d := newDriver(t, []adapter.Adapter{pathAccepter("any"), atRejecter()})
		m, err := Minimize(context.Background(), d, []byte("http://user@example.com/path"))
		require.NoError(t, err)
		require.Equal(t, "@", string(m.Input))
		require.Equal(t, "diverge(classification divergence, [])", m.Run.Verdict.String())
		require.Greater(t, m.Attempts, 1)
	})

	t.Run("keeps an input with no smaller equivalent", func(t *testing.T) {
		t.Parallel()

		d := newDriver(t, []adapter.Adapter{pathAccepter("any"), atRejecter()})
		m, err := Minimize(context.Background(), d, []byte("@"))
		require.NoError(t, err)
		require.Equal(t, "@", string(m.Input))
	})

	t.Run("propagates input errors", func(t *testing.T) {
		t.Parallel()

		d := newDriver(t, []adapter.Adapter{pathAccepter("any")}, WithMaxInputLength(2))
		_, err := Minimize(context.Background(), d, []byte("abc"))
		require.ErrorIs(t, err, ErrInputTooLarge)
	})

	t.Run("stops when cancelled", func(t *testing.T) {
		t.Parallel()

		d := newDriver(t, []adapter.Adapter{pathAccepter("any"), atRejecter()})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m, err := Minimize(ctx, d, []byte("a@b"))
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, "a@b", string(m.Input))
	})
}
