package chrome

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// growingPage appends an item every time the window scrolls.
const growingPage = `<!doctype html><html><head><title>feed</title></head>
<body style="margin:0">
<div id="feed"><div class="item" style="height:2000px">item 0</div></div>
<script>
var n = 1;
window.addEventListener('scroll', function () {
  var d = document.createElement('div');
  d.className = 'item';
  d.style.height = '2000px';
  d.textContent = 'item ' + n++;
  document.getElementById('feed').appendChild(d);
});
</script>
</body></html>`

func findChrome(t *testing.T) {
	t.Helper()
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable", "chrome"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome binary found")
}

func TestSessionScrollsLivePage(t *testing.T) {
	findChrome(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(growingPage))
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s := NewSession(ctx, true, zap.NewNop())
	defer s.Close()

	require.NoError(t, s.Navigate(ctx, ts.URL))

	html, err := s.HTML(ctx)
	require.NoError(t, err)
	before := strings.Count(html, `class="item"`)
	assert.Equal(t, 1, before)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.ScrollDown(ctx))
		time.Sleep(300 * time.Millisecond)
	}

	html, err = s.HTML(ctx)
	require.NoError(t, err)
	assert.Greater(t, strings.Count(html, `class="item"`), before)

	require.NoError(t, s.Close())
	assert.False(t, s.Alive())
}
