package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextSet_Added(t *testing.T) {
	set := &ContextSet{
		Origin: "a",
		Contexts: map[ContextID]BrowsingContext{
			"a": {ID: "a"},
			"b": {ID: "b"},
		},
		order: []ContextID{"a", "b"},
	}

	assert.Empty(t, set.Added([]ContextID{"a", "b"}))
	assert.Empty(t, set.Added([]ContextID{"a"}))
	assert.Equal(t, []ContextID{"c"}, set.Added([]ContextID{"a", "b", "c"}))
	assert.Equal(t, []ContextID{"c", "d"}, set.Added([]ContextID{"d", "a", "c", "b", "c"}))
	assert.Equal(t, []ContextID{"a", "b"}, set.IDs())
}

func TestWaitOptions_Defaults(t *testing.T) {
	opts := WaitOptions{}.withDefaults()
	assert.Equal(t, DefaultTimeout, opts.Timeout)
	assert.Equal(t, DefaultPollInterval, opts.PollInterval)

	opts = WaitOptions{Timeout: 50 * MinPollInterval, PollInterval: 1}.withDefaults()
	assert.Equal(t, MinPollInterval, opts.PollInterval)

	opts = WaitOptions{Timeout: 2 * MinPollInterval, PollInterval: 10 * MinPollInterval}.withDefaults()
	assert.Equal(t, opts.Timeout, opts.PollInterval)
}
