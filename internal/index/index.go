// Package index maintains the project-wide declaration index and selects
// the declarations worth injecting into a completion prompt.
package index

import (
	"sort"
	"strings"
	"sync"
)

// Declaration is one named code construct: a function, method, class or type.
// Tokens is derived from Signature when the declaration enters the index.
type Declaration struct {
	Name      string   `json:"name"`
	FilePath  string   `json:"file_path"`
	Signature string   `json:"signature"`
	Tokens    TokenSet `json:"-"`
}

// Key is the identity of a declaration across the whole index
func (d Declaration) Key() string {
	return Key(d.FilePath, d.Name)
}

// Key builds the index key of name declared in filePath
func Key(filePath, name string) string {
	return filePath + ":" + name
}

// Stats summarizes the index content
type Stats struct {
	Files        int `json:"files"`
	Declarations int `json:"declarations"`
	Names        int `json:"names"`
	Chars        int `json:"chars"`
}

// Index holds declarations under three views kept in sync per file:
// by file, by name and by key.
type Index struct {
	mu     sync.RWMutex
	byPath map[string][]*Declaration
	byName map[string][]*Declaration
	byKey  map[string]*Declaration
}

// New creates an empty index
func New() *Index {
	return &Index{
		byPath: make(map[string][]*Declaration),
		byName: make(map[string][]*Declaration),
		byKey:  make(map[string]*Declaration),
	}
}

// AddOrReplaceFile drops every declaration of filePath and inserts decls
// in their place. Declarations are re-homed to filePath. Two declarations
// sharing a name within the file are folded into one whose signature joins
// both, in order.
func (ix *Index) AddOrReplaceFile(filePath string, decls []Declaration) {
	fresh := make([]*Declaration, 0, len(decls))
	byKey := make(map[string]*Declaration, len(decls))
	for _, d := range decls {
		if d.Name == "" {
			continue
		}
		d.FilePath = filePath
		if prev, ok := byKey[d.Key()]; ok {
			prev.Signature += "\n" + d.Signature
			continue
		}
		rec := d
		byKey[rec.Key()] = &rec
		fresh = append(fresh, &rec)
	}
	for _, rec := range fresh {
		rec.Tokens = Tokenize(rec.Signature)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(filePath)
	if len(fresh) == 0 {
		return
	}
	ix.byPath[filePath] = fresh
	for _, rec := range fresh {
		ix.byKey[rec.Key()] = rec
		ix.byName[rec.Name] = append(ix.byName[rec.Name], rec)
	}
}

// RemoveFile drops every declaration of filePath
func (ix *Index) RemoveFile(filePath string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(filePath)
}

func (ix *Index) removeLocked(filePath string) {
	old, ok := ix.byPath[filePath]
	if !ok {
		return
	}
	for _, rec := range old {
		delete(ix.byKey, rec.Key())

		bucket := ix.byName[rec.Name]
		kept := bucket[:0]
		for _, other := range bucket {
			if other.FilePath != filePath {
				kept = append(kept, other)
			}
		}
		if len(kept) == 0 {
			delete(ix.byName, rec.Name)
		} else {
			ix.byName[rec.Name] = kept
		}
	}
	delete(ix.byPath, filePath)
}

// SelectRelevant returns the declarations to show the model for a cursor in
// currentFile, within maxChars characters of signatures.
//
// Declarations of currentFile come first, then those whose name appears in
// cursorPrefix. If these already fill the budget they are returned as is.
// Otherwise the rest of the index is ranked and appended best first until
// the first declaration that does not fit.
func (ix *Index) SelectRelevant(currentFile, cursorPrefix string, history []string, maxChars int) []Declaration {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	selected := make([]Declaration, 0)
	seen := make(map[string]struct{})
	total := 0
	add := func(rec *Declaration) {
		key := rec.Key()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		selected = append(selected, *rec)
		total += len(rec.Signature)
	}

	for _, rec := range ix.byPath[currentFile] {
		add(rec)
	}
	for _, id := range Identifiers(cursorPrefix) {
		for _, rec := range ix.byName[id] {
			add(rec)
		}
	}

	if total >= maxChars {
		return selected
	}

	type candidate struct {
		rec   *Declaration
		score float64
	}

	keys := make([]string, 0, len(ix.byKey))
	for key := range ix.byKey {
		if _, ok := seen[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	prefixTokens := Tokenize(cursorPrefix)
	currentDir := Dir(currentFile)
	candidates := make([]candidate, 0, len(keys))
	for _, key := range keys {
		rec := ix.byKey[key]
		candidates = append(candidates, candidate{
			rec:   rec,
			score: Score(*rec, prefixTokens, currentDir, history),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	for _, c := range candidates {
		if total+len(c.rec.Signature) > maxChars {
			break
		}
		add(c.rec)
	}

	return selected
}

// Lookup returns the declarations named name, across all files
func (ix *Index) Lookup(name string) []Declaration {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]Declaration, 0, len(ix.byName[name]))
	for _, rec := range ix.byName[name] {
		out = append(out, *rec)
	}
	return out
}

// FileDeclarations returns the declarations of filePath in source order
func (ix *Index) FileDeclarations(filePath string) []Declaration {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]Declaration, 0, len(ix.byPath[filePath]))
	for _, rec := range ix.byPath[filePath] {
		out = append(out, *rec)
	}
	return out
}

// Files returns the indexed file paths, sorted
func (ix *Index) Files() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	files := make([]string, 0, len(ix.byPath))
	for f := range ix.byPath {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Len returns the number of declarations in the index
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byKey)
}

// Stats returns counters describing the index
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	chars := 0
	for _, rec := range ix.byKey {
		chars += len(rec.Signature)
	}
	return Stats{
		Files:        len(ix.byPath),
		Declarations: len(ix.byKey),
		Names:        len(ix.byName),
		Chars:        chars,
	}
}

// Signatures joins the signatures of decls, one per line
func Signatures(decls []Declaration) string {
	sigs := make([]string, len(decls))
	for i, d := range decls {
		sigs[i] = d.Signature
	}
	return strings.Join(sigs, "\n")
}

// Names returns the names of decls, in order and without duplicates
func Names(decls []Declaration) []string {
	seen := make(map[string]struct{}, len(decls))
	names := make([]string, 0, len(decls))
	for _, d := range decls {
		if _, ok := seen[d.Name]; ok {
			continue
		}
		seen[d.Name] = struct{}{}
		names = append(names, d.Name)
	}
	return names
}
