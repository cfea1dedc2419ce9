package printer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	p := New(&buf)
	p.Successf("saved %d", 3)
	p.Section("Hooks")

	assert.Equal(t, Check+" saved 3\nHooks\n", buf.String())
}

func TestPrinter_Context(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	ctx := NewContext(context.Background(), p)

	assert.Same(t, p, Ctx(ctx))
	assert.NotNil(t, Ctx(context.Background()))
}

func TestPrinter_FatalErrorFieldErrors(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var errs criterio.FieldErrorsBuilder
	errs = errs.Append("entries[0].url", errors.New("url is required"))
	err := fmt.Errorf("import history: %w", errs.ToError())

	var buf bytes.Buffer
	New(&buf).FatalError(err)

	out := buf.String()
	assert.Contains(t, out, "Validation Error")
	assert.Contains(t, out, "import history")
	assert.Contains(t, out, "entries[0].url: url is required")
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "URL", "VISITS")
	tbl.Row("https://a.com", "1")
	tbl.Row("https://longer.example.com", "12")
	require.NoError(t, tbl.Flush())

	assert.Equal(t,
		"URL                         VISITS\n"+
			"https://a.com               1\n"+
			"https://longer.example.com  12\n",
		buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 5, "hell" + Ellips},
		{"héllo wörld", 3, "hé" + Ellips},
		{"hello", 1, Ellips},
		{"hello", 0, "hello"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.n), "%q/%d", tt.in, tt.n)
	}
}
