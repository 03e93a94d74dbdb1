package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-localize/pkg/storage"
)

// Operation names understood by the filesystem provider.
const (
	OpEnsureDir = "localize.ensure_dir"
	OpWrite     = "localize.write"
	OpRead      = "localize.read"
	OpRemove    = "localize.remove"
)

var (
	errPathRequired   = errors.New("storage: path is required")
	errReaderRequired = errors.New("storage: write expects io.Reader content")
)

// NewFilesystem returns a Provider rooted at root. Every path handed to the
// provider is slash separated and relative to root.
func NewFilesystem(root string) storage.Provider {
	return &filesystem{root: filepath.Clean(root)}
}

type filesystem struct {
	root string
}

func (s *filesystem) Query(ctx context.Context, query string, args ...any) (storage.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if query != OpRead {
		return nil, fmt.Errorf("storage: unsupported query %q", query)
	}
	if len(args) == 0 {
		return nil, errPathRequired
	}
	data, err := os.ReadFile(s.abs(args[0]))
	if errors.Is(err, os.ErrNotExist) {
		return &fileRows{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &fileRows{data: data, present: true}, nil
}

func (s *filesystem) Exec(ctx context.Context, query string, args ...any) (storage.Result, error) {
	if err := ctx.Err(); err != nil {
		return emptyResult{}, err
	}
	if len(args) == 0 {
		return emptyResult{}, errPathRequired
	}
	target := s.abs(args[0])
	switch query {
	case OpEnsureDir:
		return emptyResult{}, os.MkdirAll(target, 0o755)
	case OpWrite:
		if len(args) < 2 {
			return emptyResult{}, errReaderRequired
		}
		reader, ok := args[1].(io.Reader)
		if !ok || reader == nil {
			return emptyResult{}, errReaderRequired
		}
		if err := writeAtomic(target, reader); err != nil {
			return emptyResult{}, err
		}
		return writtenResult{}, nil
	case OpRemove:
		err := os.RemoveAll(target)
		if errors.Is(err, os.ErrNotExist) {
			return emptyResult{}, nil
		}
		return emptyResult{}, err
	default:
		return emptyResult{}, fmt.Errorf("storage: unsupported exec %q", query)
	}
}

func (s *filesystem) Transaction(ctx context.Context, fn func(tx storage.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(&filesystemTx{storage: s})
}

func (s *filesystem) abs(arg any) string {
	rel, _ := arg.(string)
	rel = strings.TrimLeft(filepath.ToSlash(filepath.Clean("/"+rel)), "/")
	if rel == "" {
		return s.root
	}
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// writeAtomic writes through a sibling temp file and renames it into place so
// readers never observe a partially written file.
func writeAtomic(target string, reader io.Reader) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

type filesystemTx struct {
	storage *filesystem
}

func (tx *filesystemTx) Query(ctx context.Context, query string, args ...any) (storage.Rows, error) {
	return tx.storage.Query(ctx, query, args...)
}

func (tx *filesystemTx) Exec(ctx context.Context, query string, args ...any) (storage.Result, error) {
	return tx.storage.Exec(ctx, query, args...)
}

func (tx *filesystemTx) Transaction(context.Context, func(storage.Transaction) error) error {
	return errors.New("storage: nested transactions not supported")
}

func (tx *filesystemTx) Commit() error   { return nil }
func (tx *filesystemTx) Rollback() error { return nil }

type emptyResult struct{}

func (emptyResult) RowsAffected() (int64, error) { return 0, nil }
func (emptyResult) LastInsertId() (int64, error) { return 0, nil }

type writtenResult struct{}

func (writtenResult) RowsAffected() (int64, error) { return 1, nil }
func (writtenResult) LastInsertId() (int64, error) { return 0, nil }

type fileRows struct {
	data    []byte
	present bool
	read    bool
}

func (r *fileRows) Next() bool {
	if !r.present || r.read {
		return false
	}
	r.read = true
	return true
}

func (r *fileRows) Scan(dest ...any) error {
	if len(dest) == 0 {
		return errors.New("storage: scan requires destination")
	}
	switch target := dest[0].(type) {
	case *[]byte:
		*target = append((*target)[:0], r.data...)
	case *string:
		*target = string(r.data)
	default:
		return fmt.Errorf("storage: unsupported scan destination %T", dest[0])
	}
	return nil
}

func (r *fileRows) Close() error { return nil }

// ReadFile loads path through provider. The boolean reports whether the file
// exists; a missing file is not an error.
func ReadFile(ctx context.Context, provider storage.Provider, path string) ([]byte, bool, error) {
	rows, err := provider.Query(ctx, OpRead, path)
	if err != nil {
		return nil, false, fmt.Errorf("storage: read %s: %w", path, err)
	}
	if rows == nil {
		return nil, false, nil
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, false, nil
	}
	var data []byte
	if err := rows.Scan(&data); err != nil {
		return nil, false, fmt.Errorf("storage: scan %s: %w", path, err)
	}
	return data, true, nil
}

// WriteFile stores content at path through provider.
func WriteFile(ctx context.Context, provider storage.Provider, path string, content []byte) error {
	if strings.TrimSpace(path) == "" {
		return errPathRequired
	}
	if _, err := provider.Exec(ctx, OpWrite, path, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	return nil
}
