package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/NikitaCOEUR/fimcache/internal/derrors"
	"github.com/NikitaCOEUR/fimcache/internal/index"
	"github.com/NikitaCOEUR/fimcache/internal/logger"
	"github.com/NikitaCOEUR/fimcache/internal/session"
	"github.com/NikitaCOEUR/fimcache/internal/watcher"
)

// maxRequestSize bounds one request line; requests carry whole documents
const maxRequestSize = 16 << 20

// ServeParams contains parameters for the Serve command
type ServeParams struct {
	ProjectDir string
	AuthPath   string
	LogLevel   string
	Watch      bool
	In         io.Reader
	Out        io.Writer
}

// Request is one JSON line read by Serve
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is one JSON line written by Serve
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result any             `json:"result,omitempty"`
	Error  *ResponseError  `json:"error,omitempty"`
}

// ResponseError reports a failed request
type ResponseError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type fileParams struct {
	File    string  `json:"file"`
	Content *string `json:"content,omitempty"`
}

type indexParams struct {
	Path string `json:"path"`
}

type declarationsParams struct {
	Name string `json:"name,omitempty"`
	File string `json:"file,omitempty"`
}

type indexResult struct {
	Indexed int         `json:"indexed"`
	Stats   index.Stats `json:"stats"`
}

type okResult struct {
	OK bool `json:"ok"`
}

// server answers the requests of one Serve loop
type server struct {
	project *project
	log     *logger.Logger
}

// Serve runs a completion session for the project, reading one JSON request
// per line from In and writing one JSON response per line to Out. It returns
// when In is exhausted or ctx is done.
func Serve(ctx context.Context, params ServeParams) error {
	log := logger.New(params.LogLevel, os.Stderr)

	p, err := initializeProject(params.ProjectDir, params.AuthPath, log)
	if err != nil {
		return err
	}
	defer p.Close()

	files, err := p.indexer.IndexTree(ctx, p.dir)
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", p.dir, err)
	}
	log.Info().Str("dir", p.dir).Int("files", files).Msg("Project indexed")

	if params.Watch {
		w, err := watcher.New(0)
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer func() { _ = w.Stop() }()

		err = w.Watch(p.dir, func(path string) {
			if err := p.indexer.Refresh(path); err != nil {
				log.Warn().Str("file", path).Err(err).Msg("Failed to re-index file")
			}
		})
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", p.dir, err)
		}
	}

	in := params.In
	if in == nil {
		in = os.Stdin
	}
	s := &server{project: p, log: log}
	return s.loop(ctx, in, stdout(params.Out))
}

func (s *server) loop(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestSize)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		var resp Response
		if err := json.Unmarshal(line, &req); err != nil {
			resp.Error = toResponseError(derrors.NewValidationError("request", "invalid JSON", err))
		} else {
			resp.ID = req.ID
			result, err := s.handle(ctx, req)
			if err != nil {
				resp.Error = toResponseError(err)
			} else {
				resp.Result = result
			}
		}

		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}
	return scanner.Err()
}

func (s *server) handle(ctx context.Context, req Request) (any, error) {
	sess := s.project.session
	s.log.Debug().Str("method", req.Method).Msg("Request")

	switch req.Method {
	case "open":
		var fp fileParams
		if err := decodeParams(req, &fp); err != nil {
			return nil, err
		}
		fp.File = s.abs(fp.File)
		var content []byte
		if fp.Content != nil {
			content = []byte(*fp.Content)
		}
		if err := sess.OpenFile(fp.File, content); err != nil {
			return nil, derrors.NewParseError(fp.File, "failed to index file", err)
		}
		return okResult{OK: true}, nil

	case "close":
		var fp fileParams
		if err := decodeParams(req, &fp); err != nil {
			return nil, err
		}
		sess.CloseFile(s.abs(fp.File))
		return okResult{OK: true}, nil

	case "complete":
		var creq session.Request
		if err := decodeParams(req, &creq); err != nil {
			return nil, err
		}
		creq.FilePath = s.abs(creq.FilePath)
		return sess.Complete(ctx, creq)

	case "shown":
		sess.Shown()
		return okResult{OK: true}, nil

	case "accept":
		sess.Accept()
		return okResult{OK: true}, nil

	case "stats":
		return sess.Stats(), nil

	case "index":
		var ip indexParams
		if len(req.Params) > 0 {
			if err := decodeParams(req, &ip); err != nil {
				return nil, err
			}
		}
		return s.index(ctx, ip.Path)

	case "declarations":
		var dp declarationsParams
		if err := decodeParams(req, &dp); err != nil {
			return nil, err
		}
		return s.declarations(dp)

	case "reset":
		sess.Reset()
		return okResult{OK: true}, nil

	default:
		return nil, derrors.NewNotFoundError(req.Method, fmt.Sprintf("unknown method %q", req.Method))
	}
}

// index re-indexes a file or a whole directory; an empty path means the
// project directory
func (s *server) index(ctx context.Context, path string) (*indexResult, error) {
	if path == "" {
		path = s.project.dir
	}
	path = s.abs(path)

	info, err := os.Stat(path)
	n := 0
	switch {
	case err == nil && info.IsDir():
		n, err = s.project.indexer.IndexTree(ctx, path)
	default:
		// missing files are dropped from the index by Refresh
		err = s.project.indexer.Refresh(path)
		if err == nil {
			n = 1
		}
	}
	if err != nil {
		return nil, err
	}
	return &indexResult{Indexed: n, Stats: s.project.session.Index().Stats()}, nil
}

// declarations lists the indexed declarations named name, or those of file
// in source order
func (s *server) declarations(dp declarationsParams) ([]index.Declaration, error) {
	ix := s.project.session.Index()
	switch {
	case dp.Name != "":
		return ix.Lookup(dp.Name), nil
	case dp.File != "":
		return ix.FileDeclarations(s.abs(dp.File)), nil
	default:
		return nil, derrors.NewValidationError("params", "declarations requires a name or a file", nil)
	}
}

// abs resolves a path sent by the editor against the project directory
func (s *server) abs(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.project.dir, path)
}

func decodeParams(req Request, v any) error {
	if len(req.Params) == 0 {
		return derrors.NewValidationError("params", fmt.Sprintf("%s requires params", req.Method), nil)
	}
	if err := json.Unmarshal(req.Params, v); err != nil {
		return derrors.NewValidationError("params", "invalid params", err)
	}
	return nil
}

func toResponseError(err error) *ResponseError {
	return &ResponseError{Code: derrors.CodeOf(err), Message: err.Error()}
}
