package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/NikitaCOEUR/fimcache/internal/index"
	"github.com/NikitaCOEUR/fimcache/internal/logger"
	"golang.org/x/sync/singleflight"
)

// maxFileSize skips files too large to be hand-written source
const maxFileSize = 1 << 20

// Extractor turns a file into declarations
type Extractor interface {
	Supports(path string) bool
	Extract(path string, src []byte) ([]index.Declaration, error)
}

// FilterExtensions restricts e to files whose extension is listed. An empty
// list keeps every extension e supports.
func FilterExtensions(e Extractor, extensions []string) Extractor {
	if len(extensions) == 0 {
		return e
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &filtered{Extractor: e, allowed: allowed}
}

type filtered struct {
	Extractor
	allowed map[string]struct{}
}

func (f *filtered) Supports(path string) bool {
	if _, ok := f.allowed[strings.ToLower(filepath.Ext(path))]; !ok {
		return false
	}
	return f.Extractor.Supports(path)
}

// Indexer re-parses files into the index. Concurrent refreshes of the same
// path share one parse.
type Indexer struct {
	extractor Extractor
	index     *index.Index
	group     singleflight.Group
	log       *logger.Logger
}

// NewIndexer creates an indexer writing into ix
func NewIndexer(extractor Extractor, ix *index.Index, log *logger.Logger) *Indexer {
	if log == nil {
		log = logger.Nop()
	}
	return &Indexer{extractor: extractor, index: ix, log: log}
}

// Refresh re-indexes path from disk, or removes it from the index when it
// no longer exists. Unsupported files are ignored.
func (i *Indexer) Refresh(path string) error {
	if !i.extractor.Supports(path) {
		return nil
	}

	_, err, shared := i.group.Do(path, func() (any, error) {
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			i.index.RemoveFile(path)
			i.log.Debug().Str("file", path).Msg("Removed from index")
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if info.IsDir() || info.Size() > maxFileSize {
			return nil, nil
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return nil, i.Update(path, src)
	})
	if shared {
		i.log.Debug().Str("file", path).Msg("Joined in-flight parse")
	}
	return err
}

// Update indexes src as the content of path
func (i *Indexer) Update(path string, src []byte) error {
	decls, err := i.extractor.Extract(path, src)
	if err != nil {
		return err
	}
	i.index.AddOrReplaceFile(path, decls)
	i.log.Debug().Str("file", path).Int("declarations", len(decls)).Msg("Indexed")
	return nil
}

// IndexTree indexes every supported file under root and returns how many
// files were indexed. Parse failures are logged and skipped.
func (i *Indexer) IndexTree(ctx context.Context, root string) (int, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return 0, err
	}

	count := 0
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != absRoot && ShouldIgnoreDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !i.extractor.Supports(path) {
			return nil
		}
		if err := i.Refresh(path); err != nil {
			i.log.Warn().Str("file", path).Err(err).Msg("Failed to index file")
			return nil
		}
		count++
		return nil
	})
	return count, err
}
