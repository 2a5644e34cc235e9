package pipeline

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/usemin/internal/asset"
	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/stage"
)

var base = filepath.FromSlash("/site")

func sources() []*asset.File {
	return []*asset.File{
		asset.New(filepath.Join(base, "a.js"), base, []byte("a;")),
		asset.New(filepath.Join(base, "b.js"), base, []byte("b;")),
	}
}

func upper() stage.Spec {
	return stage.Ready(stage.MapFiles("upper", func(_ context.Context, f *asset.File) (*asset.File, error) {
		return f.WithContents([]byte(strings.ToUpper(f.String()))), nil
	}))
}

func suffix(s string) stage.Spec {
	return stage.Ready(stage.MapFiles("suffix"+s, func(_ context.Context, f *asset.File) (*asset.File, error) {
		return f.WithContents([]byte(f.String() + s)), nil
	}))
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name       string
		specs      []stage.Spec
		skipConcat bool
		want       []string
	}{
		{"empty gets concat", nil, false, []string{"concat"}},
		{"empty gets concat even when skipping", nil, true, []string{"concat"}},
		{"concat prepended", []stage.Spec{upper()}, false, []string{"concat", "upper"}},
		{"explicit placement kept", []stage.Spec{upper(), stage.Concat()}, false, []string{"upper", "concat"}},
		{"skip concat", []stage.Spec{upper()}, true, []string{"upper"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Plan(tt.specs, tt.skipConcat)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Names(got))
		})
	}
}

func TestPlan_DuplicateConcat(t *testing.T) {
	_, err := Plan([]stage.Spec{stage.Concat(), upper(), stage.Concat()}, false)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestRun_ImplicitConcat(t *testing.T) {
	out, err := Run(context.Background(), "app.js", sources(), nil, Options{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, filepath.Join(base, "app.js"), out[0].Path)
	assert.Equal(t, "a;\nb;", out[0].String())
}

func TestRun_StageOrder(t *testing.T) {
	out, err := Run(context.Background(), "app.js", sources(), []stage.Spec{suffix("1"), suffix("2")}, Options{NewLine: "\r\n"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a;\r\nb;12", out[0].String())
}

func TestRun_ExplicitConcatAfterStage(t *testing.T) {
	out, err := Run(context.Background(), "app.js", sources(), []stage.Spec{suffix("!"), stage.Concat(), upper()}, Options{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "A;!\nB;!", out[0].String())
}

func TestRun_SkipConcatKeepsFiles(t *testing.T) {
	out, err := Run(context.Background(), "app.js", sources(), []stage.Spec{upper()}, Options{SkipConcat: true})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "A;", out[0].String())
	assert.Equal(t, "B;", out[1].String())
}

func TestRun_StageMayChangeFileCount(t *testing.T) {
	split := stage.Ready(stage.NewFunc("split", func(_ context.Context, files []*asset.File) ([]*asset.File, error) {
		f := files[0]
		return []*asset.File{f, f.WithPath(f.Path + ".map").WithContents([]byte("{}"))}, nil
	}))

	out, err := Run(context.Background(), "app.js", sources(), []stage.Spec{split}, Options{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, filepath.Join(base, "app.js.map"), out[1].Path)
}

func TestRun_FactoryInvokedPerRun(t *testing.T) {
	created := 0
	spec := stage.FromFactory("counter", func() stage.Stage {
		created++
		n := created
		return stage.NewFunc("counter", func(_ context.Context, files []*asset.File) ([]*asset.File, error) {
			return []*asset.File{files[0].WithContents([]byte(strings.Repeat("x", n)))}, nil
		})
	})

	first, err := Run(context.Background(), "app.js", sources(), []stage.Spec{spec}, Options{})
	require.NoError(t, err)
	second, err := Run(context.Background(), "app.js", sources(), []stage.Spec{spec}, Options{})
	require.NoError(t, err)

	assert.Equal(t, "x", first[0].String())
	assert.Equal(t, "xx", second[0].String())
}

func TestRun_StageFailure(t *testing.T) {
	boom := stderrors.New("boom")
	fail := stage.Ready(stage.NewFunc("fail", func(context.Context, []*asset.File) ([]*asset.File, error) {
		return nil, boom
	}))
	reached := false
	after := stage.Ready(stage.NewFunc("after", func(_ context.Context, files []*asset.File) ([]*asset.File, error) {
		reached = true
		return files, nil
	}))

	out, err := Run(context.Background(), "app.js", sources(), []stage.Spec{fail, after}, Options{})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.False(t, reached)
	assert.True(t, errors.IsStage(err))
	assert.ErrorIs(t, err, boom)

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	got, _ := ce.Context().GetString("stage")
	assert.Equal(t, "fail", got)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, "app.js", sources(), nil, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
