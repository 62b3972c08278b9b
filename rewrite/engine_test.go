package rewrite_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statikd/statikd/rewrite"
)

func noHeaders(string) string { return "" }

func mustEngine(t *testing.T, configs ...rewrite.RuleConfig) *rewrite.Engine {
	t.Helper()
	e, err := rewrite.NewEngine(configs)
	require.NoError(t, err)
	return e
}

func TestMatch_LongestFromWins(t *testing.T) {
	e := mustEngine(t,
		rewrite.RuleConfig{From: "/a/*", To: "/short"},
		rewrite.RuleConfig{From: "/a/b/*", To: "/long"},
	)

	m, ok := e.Match("/a/b/c", "", noHeaders)
	require.True(t, ok)
	assert.Equal(t, "/a/b/*", m.Rule.From())
	assert.Equal(t, "/long", m.Target("", noHeaders))
}

func TestMatch_ExactBeatsPrefixOfEqualLength(t *testing.T) {
	e := mustEngine(t,
		rewrite.RuleConfig{From: "/a/*", To: "/prefix"},
		rewrite.RuleConfig{From: "/a", To: "/exact"},
	)

	m, ok := e.Match("/a", "", noHeaders)
	require.True(t, ok)
	assert.Equal(t, "/a", m.Rule.From())
	assert.Equal(t, "/exact", m.Target("", noHeaders))

	// The prefix rule still catches descendants.
	m, ok = e.Match("/a/b", "", noHeaders)
	require.True(t, ok)
	assert.Equal(t, "/a/*", m.Rule.From())
}

func TestMatch_TieBreakByConfigurationOrder(t *testing.T) {
	e := mustEngine(t,
		rewrite.RuleConfig{From: "/a", To: "/first"},
		rewrite.RuleConfig{From: "/a", To: "/second"},
	)

	m, ok := e.Match("/a", "", noHeaders)
	require.True(t, ok)
	assert.Equal(t, "/first", m.Target("", noHeaders))
}

func TestMatch_RefinementFallsThroughToNextRule(t *testing.T) {
	e := mustEngine(t,
		rewrite.RuleConfig{From: "/path/*", FromRegex: `\.jpg$`, To: "/jpg"},
		rewrite.RuleConfig{From: "/path/*", To: "/any"},
	)

	m, ok := e.Match("/path/image.jpg", "", noHeaders)
	require.True(t, ok)
	assert.Equal(t, "/jpg", m.Target("", noHeaders))

	m, ok = e.Match("/path/image.png", "", noHeaders)
	require.True(t, ok)
	assert.Equal(t, "/any", m.Target("", noHeaders))
}

func TestMatch_NegatedRegex(t *testing.T) {
	e := mustEngine(t,
		rewrite.RuleConfig{From: "/path/*", QueryRegex: "!^file=", To: "/matched"},
	)

	m, ok := e.Match("/path/x", "a=b", noHeaders)
	require.True(t, ok)
	assert.Equal(t, "/matched", m.Target("a=b", noHeaders))

	_, ok = e.Match("/path/x", "file=c", noHeaders)
	assert.False(t, ok)
}

func TestMatch_QueryRegex(t *testing.T) {
	e := mustEngine(t,
		rewrite.RuleConfig{From: "/*", FromRegex: `^/file\.txt$`, QueryRegex: "!no_redirect", To: "/other.txt"},
	)

	m, ok := e.Match("/file.txt", "", noHeaders)
	require.True(t, ok)
	assert.Equal(t, "/other.txt", m.Target("", noHeaders))

	_, ok = e.Match("/file.txt", "no_redirect", noHeaders)
	assert.False(t, ok)

	_, ok = e.Match("/file.html", "", noHeaders)
	assert.False(t, ok)
}

func TestMatch_PriorityAmongRefinedRules(t *testing.T) {
	e := mustEngine(t,
		rewrite.RuleConfig{From: "/*", QueryRegex: "1", To: "/1"},
		rewrite.RuleConfig{From: "/path/*", QueryRegex: "2", To: "/2"},
		rewrite.RuleConfig{From: "/path/*", QueryRegex: "3", To: "/3"},
		rewrite.RuleConfig{From: "/path", QueryRegex: "4", To: "/4"},
		rewrite.RuleConfig{From: "/path", QueryRegex: "5", To: "/5"},
	)

	tests := []struct {
		query string
		want  string
	}{
		{"12345", "/4"},
		{"1235", "/5"},
		{"123", "/2"},
		{"13", "/3"},
		{"1", "/1"},
	}
	for _, tt := range tests {
		m, ok := e.Match("/path", tt.query, noHeaders)
		require.True(t, ok, "query %q", tt.query)
		assert.Equal(t, tt.want, m.Target(tt.query, noHeaders), "query %q", tt.query)
	}
}

func TestMatch_NoMatch(t *testing.T) {
	e := mustEngine(t,
		rewrite.RuleConfig{From: "/path", To: "/x"},
	)

	_, ok := e.Match("/other", "", noHeaders)
	assert.False(t, ok)
}

func TestMatch_TailCapture(t *testing.T) {
	e := mustEngine(t,
		rewrite.RuleConfig{From: "/path/*", To: "/another${tail}"},
	)

	m, ok := e.Match("/path/file.txt", "", noHeaders)
	require.True(t, ok)
	assert.Equal(t, "/file.txt", m.Tail)
	assert.Equal(t, "/another/file.txt", m.Target("", noHeaders))

	m, ok = e.Match("/path", "", noHeaders)
	require.True(t, ok)
	assert.Equal(t, "/", m.Tail)
	assert.Equal(t, "/another/", m.Target("", noHeaders))

	m, ok = e.Match("/path/", "", noHeaders)
	require.True(t, ok)
	assert.Equal(t, "/", m.Tail)
}

func TestTarget_Interpolation(t *testing.T) {
	e := mustEngine(t,
		rewrite.RuleConfig{From: "/path/*", To: "/another${tail}?${query}&host=${http_host}&test=${http_test_header}"},
	)

	headers := func(name string) string {
		switch name {
		case "host":
			return "localhost"
		case "test-header":
			return "successful"
		default:
			return ""
		}
	}

	m, ok := e.Match("/path/file.txt", "a=b", headers)
	require.True(t, ok)
	assert.Equal(t, "/another/file.txt?a=b&host=localhost&test=successful", m.Target("a=b", headers))

	// Absent headers and query expand to empty strings.
	m, ok = e.Match("/path/file.txt", "", noHeaders)
	require.True(t, ok)
	assert.Equal(t, "/another/file.txt?&host=&test=", m.Target("", noHeaders))
}

func TestTarget_UnknownVariableStaysLiteral(t *testing.T) {
	e := mustEngine(t,
		rewrite.RuleConfig{From: "/a", To: "/x${unknown}y${tail}"},
	)

	m, ok := e.Match("/a", "", noHeaders)
	require.True(t, ok)
	assert.Equal(t, "/x${unknown}y", m.Target("", noHeaders))
}

func TestParseTemplate_DanglingPrefix(t *testing.T) {
	tpl := rewrite.ParseTemplate("${a${query}")
	assert.Equal(t, "${aresolved", tpl.Expand(rewrite.Vars{Query: "resolved"}))
}

func TestKinds(t *testing.T) {
	e := mustEngine(t,
		rewrite.RuleConfig{From: "/tmp", To: "/t", Kind: "temporary"},
		rewrite.RuleConfig{From: "/perm", To: "/p", Kind: "permanent"},
		rewrite.RuleConfig{From: "/int", To: "/i"},
	)

	m, _ := e.Match("/tmp", "", noHeaders)
	assert.Equal(t, rewrite.KindTemporary, m.Rule.Kind())
	assert.Equal(t, http.StatusFound, m.Rule.Kind().RedirectStatus())

	m, _ = e.Match("/perm", "", noHeaders)
	assert.Equal(t, rewrite.KindPermanent, m.Rule.Kind())
	assert.Equal(t, http.StatusMovedPermanently, m.Rule.Kind().RedirectStatus())

	m, _ = e.Match("/int", "", noHeaders)
	assert.Equal(t, rewrite.KindInternal, m.Rule.Kind())
	assert.Equal(t, 0, m.Rule.Kind().RedirectStatus())
}

func TestNewEngine_ConfigurationErrors(t *testing.T) {
	_, err := rewrite.NewEngine([]rewrite.RuleConfig{{From: "/a", FromRegex: "(", To: "/x"}})
	assert.Error(t, err)

	_, err = rewrite.NewEngine([]rewrite.RuleConfig{{From: "/a", QueryRegex: "(", To: "/x"}})
	assert.Error(t, err)

	_, err = rewrite.NewEngine([]rewrite.RuleConfig{{From: "/a", To: "/x", Kind: "sideways"}})
	assert.Error(t, err)

	_, err = rewrite.NewEngine([]rewrite.RuleConfig{{From: "relative", To: "/x"}})
	assert.Error(t, err)

	_, err = rewrite.NewEngine([]rewrite.RuleConfig{{To: "/x"}})
	assert.Error(t, err)
}
