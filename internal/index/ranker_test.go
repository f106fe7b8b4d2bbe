package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func set(words ...string) TokenSet {
	s := make(TokenSet, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b TokenSet
		want float64
	}{
		{"both empty", set(), set(), 0},
		{"one empty", set("foo"), set(), 0},
		{"identical", set("foo", "bar"), set("foo", "bar"), 1},
		{"disjoint", set("foo"), set("bar"), 0},
		{"half", set("foo", "bar"), set("foo", "baz"), 1.0 / 3.0},
		{"subset", set("foo"), set("foo", "bar"), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Jaccard(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.InDelta(t, got, Jaccard(tt.b, tt.a), 1e-9, "must be symmetric")
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestDirectorySimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"equal", "src/app", "src/app", 1},
		{"equal after normalize", "src/app/", "./src/app", 1},
		{"windows separators", `src\app`, "src/app", 1},
		{"root files", ".", "", 1},
		{"sibling", "src/app", "src/lib", 0.5},
		{"parent", "src", "src/app", 2.0 / 3.0},
		{"no common ancestor", "src/app", "vendor/x", 0},
		{"absolute siblings", "/home/me/p/a", "/home/me/p/b", 0.75},
		{"root vs dir", ".", "src", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DirectorySimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestDirectorySimilarity_DecreasesWithCommonDepth(t *testing.T) {
	current := "a/b/c/d"
	targets := []string{"a/b/c/x", "a/b/y/x", "a/z/y/x", "w/z/y/x"}

	prev := 1.0
	for _, target := range targets {
		score := DirectorySimilarity(current, target)
		assert.Less(t, score, prev, target)
		prev = score
	}
	assert.Equal(t, 0.0, prev)
}

func TestRecencyScore(t *testing.T) {
	history := []string{"f0", "f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8", "f9", "f10", "f11"}

	assert.InDelta(t, 1.0, RecencyScore("f0", history), 1e-9)
	assert.InDelta(t, 0.9, RecencyScore("f1", history), 1e-9)
	assert.InDelta(t, 0.1, RecencyScore("f9", history), 1e-9)
	assert.InDelta(t, 0.0, RecencyScore("f10", history), 1e-9)
	assert.Equal(t, 0.0, RecencyScore("f11", history))
	assert.Equal(t, 0.0, RecencyScore("absent", history))
	assert.Equal(t, 0.0, RecencyScore("f0", nil))
}

func TestRecencyScore_ExactMatchOnly(t *testing.T) {
	history := []string{"src/a.ts"}
	assert.Equal(t, 0.0, RecencyScore("a.ts", history))
	assert.Equal(t, 0.0, RecencyScore("other/src/a.ts", history))
}

func TestScore_WeightedSum(t *testing.T) {
	d := Declaration{Name: "load", FilePath: "src/app/user.ts", Tokens: set("load", "user")}

	got := Score(d, set("load", "user"), "src/app", []string{"src/app/user.ts"})
	assert.InDelta(t, 1.0, got, 1e-9)

	got = Score(d, set("other"), "vendor", nil)
	assert.InDelta(t, 0.0, got, 1e-9)

	got = Score(d, set("load"), "src/lib", []string{"x", "src/app/user.ts"})
	want := 0.4*0.5 + 0.3*0.5 + 0.3*0.9
	assert.InDelta(t, want, got, 1e-9)
}

func TestDir(t *testing.T) {
	assert.Equal(t, "src/app", Dir("src/app/main.ts"))
	assert.Equal(t, ".", Dir("main.ts"))
	assert.Equal(t, "src/app", Dir(`src\app\main.ts`))
}
