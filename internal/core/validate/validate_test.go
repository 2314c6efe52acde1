package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	require.NoError(t, Email("user@example.com"))
	require.NoError(t, Email("first.last+tag@sub.example.co.kr"))

	require.Error(t, Email(""))
	require.Error(t, Email("not-an-email"))
	require.Error(t, Email("missing@tld"))
	require.Error(t, Email(strings.Repeat("a", 250)+"@b.co"))
}

func TestPassword(t *testing.T) {
	require.NoError(t, Password("Abcdef12"))
	require.NoError(t, Password("abcdef1!"))
	require.NoError(t, Password("ABCDEF1!"))

	// Too short.
	require.Error(t, Password("Ab1!"))
	// Only two character classes.
	require.Error(t, Password("abcdefg1"))
	require.Error(t, Password("abcdefgh"))
}

func TestUsername(t *testing.T) {
	require.NoError(t, Username("ab"))
	require.NoError(t, Username("user_name-01"))
	require.NoError(t, Username("주식왕"))

	require.Error(t, Username("a"))
	require.Error(t, Username(strings.Repeat("a", 21)))
	require.Error(t, Username("bad name"))
	require.Error(t, Username("bad@name"))
}

func TestImage(t *testing.T) {
	require.NoError(t, Image("image/png", 1024, "chart.png"))
	require.NoError(t, Image("image/jpeg", MaxImageSize, "photo.jpg"))

	require.Error(t, Image("application/pdf", 1024, "doc.pdf"))
	require.Error(t, Image("image/png", 0, "empty.png"))
	require.Error(t, Image("image/png", MaxImageSize+1, "big.png"))
	require.Error(t, Image("image/png", 1024, "../escape.png"))
	require.Error(t, Image("image/png", 1024, "a/b.png"))
}

func TestSanitizeHTML(t *testing.T) {
	out := SanitizeHTML(`<p>hello <b>world</b></p><script>alert(1)</script>`)
	require.Contains(t, out, "<p>hello <b>world</b></p>")
	require.NotContains(t, out, "script")

	out = SanitizeHTML(`<iframe src="https://evil.example"></iframe><em>ok</em>`)
	require.NotContains(t, out, "iframe")
	require.Contains(t, out, "<em>ok</em>")

	out = SanitizeHTML(`<p onclick="alert(1)">click</p>`)
	require.NotContains(t, out, "onclick")

	out = SanitizeHTML(`<a href="javascript:alert(1)">link</a>`)
	require.NotContains(t, out, "javascript:")
}

func TestSanitizeText(t *testing.T) {
	require.Equal(t, "title", SanitizeText("  <b>title</b>  "))
	require.Equal(t, "plain", SanitizeText("plain"))
}
