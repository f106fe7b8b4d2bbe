package index

import (
	"path"
	"strings"
)

// Weights of the three ranking terms
const (
	JaccardWeight   = 0.4
	DirectoryWeight = 0.3
	RecencyWeight   = 0.3
)

// recencyStep is the score lost per position in the history
const recencyStep = 0.1

// Score ranks decl against the cursor context. prefixTokens is the
// tokenized cursor prefix, currentDir the directory of the file being
// edited and history the recently opened files, most recent first.
func Score(decl Declaration, prefixTokens TokenSet, currentDir string, history []string) float64 {
	return JaccardWeight*Jaccard(prefixTokens, decl.Tokens) +
		DirectoryWeight*DirectorySimilarity(currentDir, Dir(decl.FilePath)) +
		RecencyWeight*RecencyScore(decl.FilePath, history)
}

// Jaccard returns |a∩b| / |a∪b|, and 0 when both sets are empty
func Jaccard(a, b TokenSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	intersection := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// DirectorySimilarity compares two directories. Equal directories score 1.
// Otherwise the score is 2*d / (len(a)+len(b)) where d is the number of
// leading path segments the two share.
func DirectorySimilarity(a, b string) float64 {
	a, b = normalizeDir(a), normalizeDir(b)
	if a == b {
		return 1.0
	}

	segsA, segsB := segments(a), segments(b)
	total := len(segsA) + len(segsB)
	if total == 0 {
		return 0
	}

	common := 0
	for common < len(segsA) && common < len(segsB) && segsA[common] == segsB[common] {
		common++
	}
	return 2 * float64(common) / float64(total)
}

// RecencyScore is 1 for the most recent file and loses 0.1 per position,
// reaching 0 at the tenth position. Files absent from history score 0.
func RecencyScore(filePath string, history []string) float64 {
	for i, h := range history {
		if h == filePath {
			score := 1.0 - float64(i)*recencyStep
			if score < 0 {
				return 0
			}
			return score
		}
	}
	return 0
}

// Dir returns the POSIX directory of a file path
func Dir(filePath string) string {
	return path.Dir(toSlash(filePath))
}

func normalizeDir(dir string) string {
	if dir == "" {
		return "."
	}
	return path.Clean(toSlash(dir))
}

func segments(dir string) []string {
	parts := strings.Split(dir, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" && p != "." {
			out = append(out, p)
		}
	}
	return out
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
