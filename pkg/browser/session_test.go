package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/navcheck/pkg/navigation"
)

func TestSessionManager_NotInitialized(t *testing.T) {
	manager := NewSessionManager()

	_, err := manager.StartSession("test", SessionOptions{Headless: true})
	assert.ErrorContains(t, err, "not initialized")

	_, err = manager.GetSession("test")
	assert.ErrorContains(t, err, `session "test" not found`)
	assert.Error(t, manager.CloseSession("test"))
	assert.NoError(t, manager.Shutdown())
}

func TestSessionManager_MaxSessions(t *testing.T) {
	manager := NewSessionManager()
	assert.Empty(t, manager.ListSessions())

	manager.SetMaxSessions(0)
	_, err := manager.StartSession("test", SessionOptions{Headless: true})
	assert.ErrorContains(t, err, "maximum number of sessions (0) reached")
	assert.Empty(t, manager.ListSessions())
}

func TestSessionManager_UnsupportedEngine(t *testing.T) {
	manager := NewSessionManager()
	_, err := manager.browserType("netscape")
	assert.ErrorContains(t, err, `unsupported browser engine "netscape"`)
}

func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a id="tab" href="/other" target="_blank">Open tab</a>
			<a id="same" href="/other">Same tab</a>
		</body></html>`)
	})
	mux.HandleFunc("/other", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>Other</h1></body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSession_CheckLinks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	manager := NewSessionManager()
	if err := manager.Initialize(); err != nil {
		t.Skipf("playwright unavailable: %v", err)
	}
	defer manager.Shutdown()

	session, err := manager.StartSession("test", SessionOptions{Headless: true})
	require.NoError(t, err)
	defer manager.CloseSession("test")

	srv := newSiteServer(t)
	require.NoError(t, session.Goto(srv.URL+"/"))

	infos := manager.ListSessions()
	require.Len(t, infos, 1)
	assert.Equal(t, "test", infos[0].Name)
	assert.Equal(t, DefaultEngine, infos[0].Engine)
	assert.Equal(t, srv.URL+"/", infos[0].CurrentURL)
	assert.True(t, infos[0].Headless)
	assert.Equal(t, 1, infos[0].Pages)

	origin, err := session.ActiveContext()
	require.NoError(t, err)

	checker := navigation.NewChecker(session, navigation.CheckerOptions{
		Timeout:      5 * time.Second,
		PollInterval: 100 * time.Millisecond,
	})

	tests := []struct {
		name     string
		selector string
		via      navigation.OutcomeKind
	}{
		{name: "new tab", selector: "#tab", via: navigation.NewContext},
		{name: "same tab", selector: "#same", via: navigation.OriginURLChanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			href, err := session.Attribute(tt.selector, "href")
			require.NoError(t, err)

			outcome, err := checker.Check(context.Background(), navigation.LinkSpec{
				Selector: tt.selector,
				Href:     href,
			})
			require.NoError(t, err)
			assert.Equal(t, navigation.StatusVerified, outcome.Status, outcome.Detail)
			assert.Equal(t, tt.via, outcome.Via)

			ids, err := session.ListContexts()
			require.NoError(t, err)
			assert.Equal(t, []navigation.ContextID{origin}, ids)

			active, err := session.ActiveContext()
			require.NoError(t, err)
			assert.Equal(t, origin, active)

			// Same-tab links leave the origin elsewhere
			require.NoError(t, session.Goto(srv.URL+"/"))
		})
	}

	html, err := session.Content()
	require.NoError(t, err)
	anchors, err := ExtractAnchors(html, "body")
	require.NoError(t, err)
	assert.Len(t, anchors, 2)
}

func TestSession_Quit(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	manager := NewSessionManager()
	if err := manager.Initialize(); err != nil {
		t.Skipf("playwright unavailable: %v", err)
	}
	defer manager.Shutdown()

	manager.SetMaxSessions(1)
	session, err := manager.StartSession("quit", SessionOptions{Headless: true, Engine: "chromium"})
	require.NoError(t, err)

	_, err = manager.StartSession("second", SessionOptions{Headless: true})
	assert.ErrorContains(t, err, "maximum number of sessions (1) reached")

	require.NoError(t, session.Quit())
	require.NoError(t, session.Quit())

	_, err = session.ListContexts()
	assert.ErrorIs(t, err, ErrSessionClosed)
}
