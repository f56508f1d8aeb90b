package highlight

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkbin/inkbin/internal/domain"
)

func TestSupports(t *testing.T) {
	r := NewRenderer()
	assert.True(t, r.Supports("go"))
	assert.True(t, r.Supports("python"))
	assert.True(t, r.Supports("GO"), "language tags are case-insensitive")
	assert.False(t, r.Supports("klingon"))
	assert.False(t, r.Supports(""))
	assert.False(t, r.Supports(domain.FormatNone), "the unformatted sentinel is not a language")
}

func TestRender_KnownLanguage(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render("package main\n\nfunc main() {}\n", "go")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "<"), "output should be markup")
	assert.Contains(t, out, "main")
}

func TestRender_UnknownLanguage(t *testing.T) {
	r := NewRenderer()
	_, err := r.Render("whatever", "klingon")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedLanguage))
	assert.Contains(t, err.Error(), "klingon")
}

func TestRender_NoneSentinelRejected(t *testing.T) {
	r := NewRenderer()
	_, err := r.Render("plain text", domain.FormatNone)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedLanguage))
}

func TestRender_Deterministic(t *testing.T) {
	r := NewRenderer()
	const src = "def greet():\n    return \"hi\"\n"
	first, err := r.Render(src, "python")
	require.NoError(t, err)
	second, err := r.Render(src, "python")
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical input must render identically")
}

func TestRender_EscapesMarkup(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render("<script>alert(1)</script>", "html")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>alert(1)</script>", "raw input must be escaped")
}
