package navigation_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/navcheck/pkg/browser/browsertest"
	"github.com/entrhq/navcheck/pkg/navigation"
)

func newChecker(b *browsertest.Browser) *navigation.Checker {
	return navigation.NewChecker(b, navigation.CheckerOptions{
		Timeout:      testTimeout,
		PollInterval: testPoll,
	})
}

// assertRestored checks the post-condition of every verification cycle.
func assertRestored(t *testing.T, b *browsertest.Browser, origin navigation.ContextID, count int) {
	t.Helper()
	ids, err := b.ListContexts()
	require.NoError(t, err)
	assert.Len(t, ids, count, b.Describe())
	active, err := b.ActiveContext()
	require.NoError(t, err)
	assert.Equal(t, origin, active)
}

func TestChecker_ExternalLinkNewContext(t *testing.T) {
	b := browsertest.New("https://example.com/").
		AddLink("a.twitter", browsertest.Link{
			Href:  "https://twitter.com/x",
			Opens: []string{"https://twitter.com/x/status"},
			Delay: 20 * time.Millisecond,
		})
	origin, _ := b.ActiveContext()

	assert.Equal(t, navigation.External, navigation.Classify("https://twitter.com/x", "example.com").Classification)

	outcome, err := newChecker(b).Check(context.Background(), navigation.LinkSpec{
		Selector:     "a.twitter",
		Href:         "https://twitter.com/x",
		ExpectedHost: "twitter.com",
	})
	require.NoError(t, err)

	assert.Equal(t, navigation.StatusVerified, outcome.Status)
	assert.Equal(t, navigation.NewContext, outcome.Via)
	assert.Equal(t, "https://twitter.com/x/status", outcome.ObservedURL)
	assert.Equal(t, "twitter.com", outcome.ObservedHost)
	assert.Equal(t, navigation.MatchExact, outcome.Match)
	assertRestored(t, b, origin, 1)
}

func TestChecker_InternalLinkRedirectsInPlace(t *testing.T) {
	b := browsertest.New("https://example.com/").
		AddLink("a.about", browsertest.Link{Href: "/about", Navigate: "https://example.com/about"})
	origin, _ := b.ActiveContext()

	assert.Equal(t, navigation.Internal, navigation.Classify("/about", "example.com").Classification)

	outcome, err := newChecker(b).Check(context.Background(), navigation.LinkSpec{
		Selector:     "a.about",
		Href:         "/about",
		ExpectedHost: "example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, navigation.StatusVerified, outcome.Status)
	assert.Equal(t, navigation.OriginURLChanged, outcome.Via)
	assert.Equal(t, "https://example.com/about", outcome.ObservedURL)
	assertRestored(t, b, origin, 1)
}

func TestChecker_Timeout(t *testing.T) {
	b := browsertest.New("https://example.com/").
		AddLink("a.dead", browsertest.Link{Href: "/nowhere"})
	origin, _ := b.ActiveContext()

	outcome, err := navigation.NewChecker(b, navigation.CheckerOptions{}).Check(context.Background(), navigation.LinkSpec{
		Selector:     "a.dead",
		Href:         "/nowhere",
		Timeout:      500 * time.Millisecond,
		PollInterval: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.Equal(t, navigation.StatusTimeout, outcome.Status)
	assert.GreaterOrEqual(t, outcome.Polls, 5)
	assert.GreaterOrEqual(t, outcome.ElapsedMs, int64(500))
	assertRestored(t, b, origin, 1)
}

func TestChecker_TwoTriggersWithoutRestore(t *testing.T) {
	b := browsertest.New("https://example.com/").
		AddLink("a.first", browsertest.Link{Opens: []string{"https://first.org/"}}).
		AddLink("a.second", browsertest.Link{Navigate: "https://example.com/second"})
	origin, _ := b.ActiveContext()
	w := navigation.NewWaiter(b, nil)
	opts := navigation.WaitOptions{Timeout: testTimeout, PollInterval: testPoll}

	first, err := w.Await(context.Background(), navigation.ClickTrigger(b, "a.first"), origin, opts)
	require.NoError(t, err)
	require.Equal(t, navigation.NewContext, first.Kind)

	second, err := w.Await(context.Background(), navigation.ClickTrigger(b, "a.second"), origin, opts)
	require.NoError(t, err)
	assert.Equal(t, navigation.OriginURLChanged, second.Kind, "leftover context from the first trigger must not count as new")

	r := navigation.NewRestorer(b, nil, navigation.RestoreOptions{})
	require.NoError(t, r.Restore(origin, append(first.Opened, second.Opened...)...))
	assertRestored(t, b, origin, 1)
}

func TestChecker_HostMismatchStillRestores(t *testing.T) {
	b := browsertest.New("https://example.com/").
		AddLink("a.fb", browsertest.Link{Opens: []string{"https://facebook.com/page"}})
	origin, _ := b.ActiveContext()

	outcome, err := newChecker(b).Check(context.Background(), navigation.LinkSpec{
		Selector:     "a.fb",
		Href:         "https://facebook.com/page",
		ExpectedHost: "twitter.com",
	})
	require.NoError(t, err)

	assert.Equal(t, navigation.StatusHostMismatch, outcome.Status)
	assert.Equal(t, "facebook.com", outcome.ObservedHost)
	assertRestored(t, b, origin, 1)
}

func TestChecker_AmbiguousClosesEverything(t *testing.T) {
	b := browsertest.New("https://example.com/").
		AddLink("a.popups", browsertest.Link{Opens: []string{"https://a.org/", "https://b.org/"}})
	origin, _ := b.ActiveContext()

	outcome, err := newChecker(b).Check(context.Background(), navigation.LinkSpec{Selector: "a.popups", Href: "https://a.org/"})
	require.NoError(t, err)

	assert.Equal(t, navigation.StatusAmbiguous, outcome.Status)
	assertRestored(t, b, origin, 1)
}

func TestChecker_NonNavigableSkipsClick(t *testing.T) {
	b := browsertest.New("https://example.com/").
		AddLink("a.mail", browsertest.Link{Href: "mailto:help@example.com", Opens: []string{"https://mail.example.com/"}})
	origin, _ := b.ActiveContext()

	outcome, err := newChecker(b).Check(context.Background(), navigation.LinkSpec{Selector: "a.mail", Href: "mailto:help@example.com"})
	require.NoError(t, err)

	assert.Equal(t, navigation.StatusSkipped, outcome.Status)
	assert.Empty(t, b.Clicks())
	assertRestored(t, b, origin, 1)
}

func TestChecker_DerivesExpectedHost(t *testing.T) {
	t.Run("external uses resolved host", func(t *testing.T) {
		b := browsertest.New("https://example.com/").
			AddLink("a.gh", browsertest.Link{Opens: []string{"https://github.com/org/repo"}})

		outcome, err := newChecker(b).Check(context.Background(), navigation.LinkSpec{Selector: "a.gh", Href: "https://github.com/org"})
		require.NoError(t, err)
		assert.Equal(t, "github.com", outcome.ExpectedHost)
		assert.Equal(t, navigation.StatusVerified, outcome.Status)
	})

	t.Run("internal uses origin host", func(t *testing.T) {
		b := browsertest.New("https://www.example.com/home").
			AddLink("a.cart", browsertest.Link{Navigate: "https://www.example.com/cart"})

		outcome, err := newChecker(b).Check(context.Background(), navigation.LinkSpec{Selector: "a.cart", Href: "cart"})
		require.NoError(t, err)
		assert.Equal(t, "www.example.com", outcome.ExpectedHost)
		assert.Equal(t, navigation.StatusVerified, outcome.Status)
	})
}

func TestChecker_LooseMatchVerifiesWithDetail(t *testing.T) {
	b := browsertest.New("https://example.com/").
		AddLink("a.gh", browsertest.Link{Opens: []string{"https://github.com/"}})

	outcome, err := newChecker(b).Check(context.Background(), navigation.LinkSpec{
		Selector:     "a.gh",
		Href:         "https://git.com/",
		ExpectedHost: "git",
	})
	require.NoError(t, err)
	assert.Equal(t, navigation.StatusVerified, outcome.Status)
	assert.Equal(t, navigation.MatchLoose, outcome.Match)
	assert.Contains(t, outcome.Detail, "loose match")
}

func TestChecker_CustomTrigger(t *testing.T) {
	b := browsertest.New("https://example.com/")
	origin, _ := b.ActiveContext()

	outcome, err := newChecker(b).Check(context.Background(), navigation.LinkSpec{
		Trigger: func() error {
			b.OpenTab("https://docs.example.com/")
			return nil
		},
		ExpectedHost: "example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, navigation.StatusVerified, outcome.Status)
	assert.Equal(t, navigation.MatchSubdomain, outcome.Match)
	assertRestored(t, b, origin, 1)
}

func TestChecker_RestorationFailureIsReturned(t *testing.T) {
	b := browsertest.New("https://example.com/").
		AddLink("a.tw", browsertest.Link{Opens: []string{"https://twitter.com/"}})
	b.CloseErr = errors.New("target crashed")

	outcome, err := newChecker(b).Check(context.Background(), navigation.LinkSpec{Selector: "a.tw", ExpectedHost: "twitter.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, navigation.ErrRestoration)
	assert.Equal(t, navigation.StatusVerified, outcome.Status)
}

func TestChecker_TriggerErrorStillRestores(t *testing.T) {
	b := browsertest.New("https://example.com/")
	origin, _ := b.ActiveContext()

	_, err := newChecker(b).Check(context.Background(), navigation.LinkSpec{Selector: "a.missing", Href: "/x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, navigation.ErrTrigger)
	assert.ErrorIs(t, err, browsertest.ErrNoElement)
	assertRestored(t, b, origin, 1)
}

func TestChecker_EmptyHrefExpectsOriginHost(t *testing.T) {
	b := browsertest.New("https://example.com/").
		AddLink("a.out", browsertest.Link{Opens: []string{"https://twitter.com/x"}})
	origin, _ := b.ActiveContext()

	outcome, err := newChecker(b).Check(context.Background(), navigation.LinkSpec{Selector: "a.out"})
	require.NoError(t, err)
	assert.Equal(t, navigation.Internal, outcome.Link.Classification)
	assert.Equal(t, "example.com", outcome.ExpectedHost)
	assert.Equal(t, navigation.StatusHostMismatch, outcome.Status)
	assertRestored(t, b, origin, 1)

	outcome, err = newChecker(b).Check(context.Background(), navigation.LinkSpec{Selector: "a.out", ExpectedHost: "twitter.com"})
	require.NoError(t, err)
	assert.Equal(t, navigation.StatusVerified, outcome.Status)
}

func TestChecker_FailureDetail(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name   string
		ctx    context.Context
		spec   navigation.LinkSpec
		target error
		prefix string
	}{
		{
			name:   "missing element",
			ctx:    context.Background(),
			spec:   navigation.LinkSpec{Selector: "a.missing", Href: "/x"},
			target: navigation.ErrTrigger,
			prefix: "trigger failed: ",
		},
		{
			name:   "cancelled",
			ctx:    cancelled,
			spec:   navigation.LinkSpec{Trigger: func() error { return nil }, Href: "/x"},
			target: context.Canceled,
			prefix: "cancelled: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := browsertest.New("https://example.com/")

			outcome, err := newChecker(b).Check(tt.ctx, tt.spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, navigation.StatusTimeout, outcome.Status)
			assert.True(t, strings.HasPrefix(outcome.Detail, tt.prefix), outcome.Detail)
			assert.NotContains(t, outcome.Detail, "no new context")
		})
	}
}

func TestChecker_PanicInTriggerStillRestores(t *testing.T) {
	b := browsertest.New("https://example.com/")
	origin, _ := b.ActiveContext()
	opened := navigation.ContextID("")

	assert.Panics(t, func() {
		_, _ = newChecker(b).Check(context.Background(), navigation.LinkSpec{
			Trigger: func() error {
				opened = b.OpenTab("https://x.org/")
				_ = b.SwitchTo(opened)
				panic("boom")
			},
		})
	})

	assert.NotEmpty(t, opened)
	assertRestored(t, b, origin, 1)
}

func TestChecker_RequiresSelectorOrTrigger(t *testing.T) {
	b := browsertest.New("https://example.com/")
	_, err := newChecker(b).Check(context.Background(), navigation.LinkSpec{Href: "/x"})
	assert.Error(t, err)
}
