package minify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Type
		wantErr bool
	}{
		{input: "js", want: JS},
		{input: "JavaScript", want: JS},
		{input: "css", want: CSS},
		{input: "HTML", want: HTML},
		{input: "htm", want: HTML},
		{input: "none", want: Plain},
		{input: "plain", want: Plain},
		{input: "scss", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseType(test.input)
			if test.wantErr {
				require.ErrorIs(t, err, ErrUnknownType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestTypeFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		want   Type
		wantOK bool
	}{
		{path: "dist/app.min.js", want: JS, wantOK: true},
		{path: "dist/APP.CSS", want: CSS, wantOK: true},
		{path: "index.Html", want: HTML, wantOK: true},
		{path: "notes.txt", want: Plain, wantOK: true},
		{path: "Makefile", wantOK: false},
		{path: "archive.tar.gz", wantOK: false},
		{path: "dir.d/", wantOK: false},
	}

	for _, test := range tests {
		t.Run(test.path, func(t *testing.T) {
			t.Parallel()
			got, ok := TypeFromPath(test.path)
			assert.Equal(t, test.wantOK, ok)
			if test.wantOK {
				assert.Equal(t, test.want, got)
			}
		})
	}
}

func TestType_Text(t *testing.T) {
	t.Parallel()

	for _, typ := range []Type{Plain, JS, CSS, HTML} {
		text, err := typ.MarshalText()
		require.NoError(t, err)
		var got Type
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, typ, got)
	}
	assert.Equal(t, "Type(9)", Type(9).String())
}

func TestMinify(t *testing.T) {
	t.Parallel()

	t.Run("js declarations are merged", func(t *testing.T) {
		t.Parallel()
		got, err := Minify([]byte("const a=1;const b=2;"), JS)
		require.NoError(t, err)
		assert.Equal(t, "const a=1,b=2;", string(got))
	})

	t.Run("js without terminator stays unterminated", func(t *testing.T) {
		t.Parallel()
		got, err := Minify([]byte("const a = 1"), JS)
		require.NoError(t, err)
		assert.Equal(t, "const a=1", string(got))
	})

	t.Run("css", func(t *testing.T) {
		t.Parallel()
		got, err := Minify([]byte("html { color: red; }\nbody {\n  color: #000000;\n}\n"), CSS)
		require.NoError(t, err)
		assert.Equal(t, "html{color:red}body{color:#000}", string(got))
	})

	t.Run("html keeps comments", func(t *testing.T) {
		t.Parallel()
		got, err := Minify([]byte("<div>\n  <!-- templates -->\n  <p>hi</p>\n</div>\n"), HTML)
		require.NoError(t, err)
		assert.Contains(t, string(got), "<!-- templates -->")
		assert.Contains(t, string(got), "<p>hi</p>")
		assert.Less(t, len(got), len("<div>\n  <!-- templates -->\n  <p>hi</p>\n</div>\n"))
	})

	t.Run("plain is unchanged", func(t *testing.T) {
		t.Parallel()
		input := "  keep   this\n"
		got, err := Minify([]byte(input), Plain)
		require.NoError(t, err)
		assert.Equal(t, input, string(got))
	})

	t.Run("malformed js fails", func(t *testing.T) {
		t.Parallel()
		_, err := Minify([]byte("function ( {"), JS)
		require.ErrorContains(t, err, "failed to minify js")
	})

	t.Run("unknown type fails", func(t *testing.T) {
		t.Parallel()
		_, err := Minify([]byte("x"), Type(42))
		require.ErrorIs(t, err, ErrUnknownType)
	})
}

func TestMinify_Deterministic(t *testing.T) {
	t.Parallel()

	inputs := map[Type]string{
		JS:   "function add(first, second) {\n  return first + second;\n}\nconsole.log(add(1, 2));\n",
		CSS:  "a { margin: 0px 0px 0px 0px; }\n",
		HTML: "<html>\n<head></head>\n<body>\n  <span> a </span>\n</body>\n</html>\n",
	}
	for typ, input := range inputs {
		first, err := Minify([]byte(input), typ)
		require.NoError(t, err)
		second, err := Minify([]byte(input), typ)
		require.NoError(t, err)
		assert.Equal(t, first, second, typ.String())
	}
}

func TestKeepTerminator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		out  string
		want string
	}{
		{name: "restored", text: "a();\n", out: "a()", want: "a();"},
		{name: "already present", text: "a();", out: "a();", want: "a();"},
		{name: "input unterminated", text: "a()", out: "a()", want: "a()"},
		{name: "empty output", text: ";", out: "", want: ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got := keepTerminator([]byte(test.text), []byte(test.out))
			assert.Equal(t, test.want, string(got))
		})
	}
}
