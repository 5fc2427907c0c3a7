package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stolasapp/forge/internal/minify"
)

func TestInferKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		explicit string
		output   string
		want     Kind
		wantErr  bool
	}{
		{name: "js extension", output: "dist/app.min.js", want: KindJS},
		{name: "css extension upper case", output: "dist/APP.CSS", want: KindCSS},
		{name: "htm extension", output: "index.htm", want: KindHTML},
		{name: "txt extension", output: "notes.txt", want: KindPlain},
		{name: "explicit wins", explicit: "css", output: "bundle.js", want: KindCSS},
		{name: "explicit alias", explicit: "JavaScript", output: "bundle", want: KindJS},
		{name: "copy", explicit: "copy", output: "dist", want: KindCopy},
		{name: "move", explicit: " Move ", output: "dist", want: KindMove},
		{name: "missing extension", output: "dist/bundle", wantErr: true},
		{name: "unknown extension", output: "dist/bundle.wasm", wantErr: true},
		{name: "unknown explicit", explicit: "wasm", output: "a.js", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got, err := InferKind(test.explicit, test.output)
			if test.wantErr {
				require.ErrorIs(t, err, ErrUnknownBuildType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestKind_MinifyType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, minify.JS, KindJS.MinifyType())
	assert.Equal(t, minify.CSS, KindCSS.MinifyType())
	assert.Equal(t, minify.HTML, KindHTML.MinifyType())
	assert.Equal(t, minify.Plain, KindPlain.MinifyType())
	assert.Equal(t, minify.Plain, KindCopy.MinifyType())
	assert.True(t, KindCopy.IsFileOp())
	assert.True(t, KindMove.IsFileOp())
	assert.False(t, KindJS.IsFileOp())
}

func TestRunError(t *testing.T) {
	t.Parallel()

	err := error(&RunError{Name: "app", Err: ErrUnknownBuildType})
	require.ErrorIs(t, err, ErrUnknownBuildType)
	assert.Equal(t, `build "app" failed: unknown build type`, err.Error())

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "app", runErr.Name)
}
