package modifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Action
		wantErr bool
	}{
		{input: "append", want: ActionAppend},
		{input: "PREPEND", want: ActionPrepend},
		{input: " replace ", want: ActionReplace},
		{input: "erase", want: ActionErase},
		{input: "compare", want: ActionCompare},
		{input: "unspecified", wantErr: true},
		{input: "insert", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseAction(test.input)
			if test.wantErr {
				require.ErrorIs(t, err, ErrInvalidModifier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
			assert.Equal(t, got, must(ParseAction(got.String())))
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		action   Action
		match    string
		contents Contents
		opts     []Option
		wantErr  string
	}{
		{
			name:     "append with inline contents",
			action:   ActionAppend,
			match:    "x",
			contents: String("!"),
		},
		{
			name:     "replace with file contents",
			action:   ActionReplace,
			match:    "x",
			contents: File("contents.txt"),
		},
		{
			name:   "erase without contents",
			action: ActionErase,
			match:  "x",
		},
		{
			name:   "compare without contents",
			action: ActionCompare,
			match:  "x",
		},
		{
			name:    "missing action",
			match:   "x",
			wantErr: "action is required",
		},
		{
			name:     "unknown action",
			action:   Action(99),
			match:    "x",
			contents: String("y"),
			wantErr:  "action is required",
		},
		{
			name:     "empty match",
			action:   ActionReplace,
			contents: String("y"),
			wantErr:  "requires a match",
		},
		{
			name:    "prepend missing contents",
			action:  ActionPrepend,
			match:   "x",
			wantErr: "requires contents",
		},
		{
			name:     "replace empty inline contents",
			action:   ActionReplace,
			match:    "x",
			contents: Bytes(nil),
			wantErr:  "must not be empty",
		},
		{
			name:     "append empty file path",
			action:   ActionAppend,
			match:    "x",
			contents: File(""),
			wantErr:  "file path is empty",
		},
		{
			name:     "erase with contents",
			action:   ActionErase,
			match:    "x",
			contents: String("y"),
			wantErr:  "does not accept contents",
		},
		{
			name:     "compare with contents",
			action:   ActionCompare,
			match:    "x",
			contents: String("y"),
			wantErr:  "does not accept contents",
		},
		{
			name:    "bad regex",
			action:  ActionErase,
			match:   "(",
			opts:    []Option{AsRegex()},
			wantErr: "bad pattern",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			mod, err := New(test.action, []byte(test.match), test.contents, test.opts...)
			if test.wantErr != "" {
				require.ErrorIs(t, err, ErrInvalidModifier)
				require.ErrorContains(t, err, test.wantErr)
				assert.Nil(t, mod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.action, mod.Action())
			assert.Equal(t, []byte(test.match), mod.Match())
		})
	}
}

func TestNew_CopiesMatch(t *testing.T) {
	t.Parallel()

	match := []byte("abc")
	mod, err := New(ActionErase, match, Contents{})
	require.NoError(t, err)
	match[0] = 'z'
	assert.Equal(t, []byte("abc"), mod.Match())
}

func TestResolveContents(t *testing.T) {
	t.Parallel()

	t.Run("inline", func(t *testing.T) {
		t.Parallel()
		mod, err := Replace("x", String("y"))
		require.NoError(t, err)
		got, err := mod.ResolveContents()
		require.NoError(t, err)
		assert.Equal(t, "y", string(got))
	})

	t.Run("file is read once", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "contents.html")
		require.NoError(t, os.WriteFile(path, []byte("<p>hi</p>"), 0o600))

		mod, err := Append("x", File(path))
		require.NoError(t, err)
		got, err := mod.ResolveContents()
		require.NoError(t, err)
		assert.Equal(t, "<p>hi</p>", string(got))

		require.NoError(t, os.WriteFile(path, []byte("changed"), 0o600))
		got, err = mod.ResolveContents()
		require.NoError(t, err)
		assert.Equal(t, "<p>hi</p>", string(got))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		mod, err := Prepend("x", File(filepath.Join(t.TempDir(), "missing")))
		require.NoError(t, err)
		_, err = mod.ResolveContents()
		require.ErrorIs(t, err, ErrContentUnreadable)
		_, err = mod.ResolveContents()
		require.ErrorIs(t, err, ErrContentUnreadable)
	})

	t.Run("erase has no contents", func(t *testing.T) {
		t.Parallel()
		mod, err := Erase("x")
		require.NoError(t, err)
		got, err := mod.ResolveContents()
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestModifier_String(t *testing.T) {
	t.Parallel()

	mod, err := Replace("div", String("span"))
	require.NoError(t, err)
	assert.Equal(t, `replace(literal "div", inline(4 bytes))`, mod.String())

	mod, err = Erase(`\s+`, AsRegex())
	require.NoError(t, err)
	assert.Equal(t, `erase(regex "\\s+")`, mod.String())
}

func must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
