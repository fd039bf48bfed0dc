package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"./src", "src", true},
		{"src", "src/a.ts", false},
		{"src/*.ts", "src/a.ts", true},
		{"src/*.ts", "src/lib/a.ts", false},
		{"src/**/*.ts", "src/lib/deep/a.ts", true},
		{"src/{a,b}.ts", "src/b.ts", true},
		{"src/[ab].ts", "src/c.ts", false},
		{"src/[", "src/[", false},
		{"src/*", "src/.eslintrc.js", false},
		{"**/*.ts", ".storybook/a.ts", false},
		{"src/**", "src/.cache/a.ts", false},
		{".storybook/*.ts", ".storybook/a.ts", true},
		{"src/.*", "src/.eslintrc.js", true},
		{"!src/**", "lib/a.ts", true},
		{"!src/**", "src/a.ts", false},
		{"!!src/*.ts", "src/a.ts", true},
		{"!./src/[", "lib/a.ts", false},
		{"{src,lib/deep}/*.ts", "lib/deep/a.ts", true},
		{"/repo/src/*.ts", "/repo/src/a.ts", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Match(tc.pattern, tc.name), "%s vs %s", tc.pattern, tc.name)
	}
}

func TestMatchSubtree(t *testing.T) {
	assert.True(t, MatchSubtree("src", "src"))
	assert.True(t, MatchSubtree("./src/", "src/format/a.ts"))
	assert.True(t, MatchSubtree("src/*", "src/format/a.ts"))
	assert.False(t, MatchSubtree("src", "srcs/a.ts"))
	assert.False(t, MatchSubtree("src", "src/.cache/a.ts"))
	assert.True(t, MatchSubtree("!src", "lib/a.ts"))
	assert.False(t, MatchSubtree("!src", "src/format/a.ts"))
}

func TestMatchListKeepsInputOrder(t *testing.T) {
	got := MatchList([]string{"b/x.ts", "a/x.ts", "b/y.js"}, "*/*.ts")
	assert.Equal(t, []string{"b/x.ts", "a/x.ts"}, got)
}

func TestMatchAnyReportsEachPathOnce(t *testing.T) {
	got := MatchAny([]string{"src/a.ts", "lib/b.ts"}, []string{"src/*", "**/*.ts"})
	assert.Equal(t, []string{"src/a.ts", "lib/b.ts"}, got)
}

func TestValidatePattern(t *testing.T) {
	assert.True(t, ValidatePattern("./src/**/*.ts"))
	assert.False(t, ValidatePattern("src/["))
	assert.True(t, ValidatePattern("!src/**"))
}
