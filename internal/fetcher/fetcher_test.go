package fetcher

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!doctype html>
<html>
<head><title>  Fix: laptop fan always on </title><style>body{}</style></head>
<body>
<nav>Home | Forum</nav>
<header>Vendor KB</header>
<main>
  <h1>Fan runs at full speed</h1>
  <p>Dust buildup on the heatsink
     raises CPU temperature.</p>
  <script>track()</script>
  <p>Clean the vents and reapply thermal paste.</p>
</main>
<footer>(c) vendor</footer>
</body>
</html>`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "diag/")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_ExtractsReadableText(t *testing.T) {
	srv := serve(t, http.StatusOK, articleHTML)

	page, err := New().Fetch(srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Fix: laptop fan always on", page.Title)
	assert.Equal(t, "Fan runs at full speed Dust buildup on the heatsink raises CPU temperature. Clean the vents and reapply thermal paste.", page.Text)
	assert.Equal(t, srv.URL, page.URL)

	desc := page.Description()
	assert.True(t, strings.HasPrefix(desc, "Fix: laptop fan always on\n\n"))
	assert.True(t, strings.HasSuffix(desc, "Sumber: "+srv.URL))
}

func TestFetch_ClipsLongText(t *testing.T) {
	srv := serve(t, http.StatusOK, "<p>"+strings.Repeat("word ", 100)+"</p>")

	f := New()
	f.MaxText = 30
	page, err := f.Fetch(srv.URL)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(page.Text), 30)
	assert.True(t, strings.HasSuffix(page.Text, "word..."))
}

func TestFetch_Errors(t *testing.T) {
	notFound := serve(t, http.StatusNotFound, "gone")
	empty := serve(t, http.StatusOK, "<html><script>x()</script></html>")

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"http error", notFound.URL, "HTTP 404"},
		{"no text", empty.URL, "no text content"},
		{"bad scheme", "ftp://example.com/file", "unsupported scheme"},
		{"missing host", "https://", "missing host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Fetch(tt.url)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com"))
	assert.True(t, IsURL("  http://example.com"))
	assert.True(t, IsURL("www.example.com"))
	assert.False(t, IsURL("RAM penuh"))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "alpha...", clip("alpha beta gamma", 12))
	assert.Equal(t, "unbounded text", clip("unbounded text", 0))
}

func TestClip_KeepsRunesWhole(t *testing.T) {
	got := clip(strings.Repeat("é", 50), 20)
	assert.True(t, utf8.ValidString(got), "%q", got)
	assert.Equal(t, strings.Repeat("é", 8)+"...", got)
	assert.LessOrEqual(t, len(got), 20)

	got = clip("layar berkedip saat suhu naik ±80°C terus", 40)
	assert.True(t, utf8.ValidString(got), "%q", got)
}
