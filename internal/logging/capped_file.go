package logging

import (
	"os"
	"path/filepath"
	"sync"
)

const defaultCapMB = 10

// cappedFile is a log sink that starts the file over once it would grow past
// its byte limit. Fleet hosts recycle processes for days at a time, so an
// unbounded log file would eventually fill the host disk.
type cappedFile struct {
	path  string
	limit int64

	mu sync.Mutex
	f  *os.File
	n  int64
}

func openCappedFile(path string, maxMB int) (*cappedFile, error) {
	if maxMB <= 0 {
		maxMB = defaultCapMB
	}
	w := &cappedFile{path: path, limit: int64(maxMB) << 20}
	if err := w.reopen(false); err != nil {
		return nil, err
	}
	return w, nil
}

// reopen (re)establishes the backing file: appending to what is already on
// disk, or truncating it when the cap was hit. Callers hold mu except the
// constructor.
func (w *cappedFile) reopen(truncate bool) error {
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	flags := os.O_CREATE | os.O_WRONLY
	if truncate {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	f, err := os.OpenFile(w.path, flags, 0o644)
	if err != nil {
		return err
	}
	w.f = f
	w.n = 0
	if !truncate {
		if info, err := f.Stat(); err == nil {
			w.n = info.Size()
		}
	}
	return nil
}

func (w *cappedFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		if err := w.reopen(false); err != nil {
			return 0, err
		}
	}
	if w.n+int64(len(p)) > w.limit {
		if err := w.reopen(true); err != nil {
			return 0, err
		}
	}
	n, err := w.f.Write(p)
	w.n += int64(n)
	return n, err
}

// Sync forces buffered bytes to disk without closing the file. The writer
// stays usable afterwards.
func (w *cappedFile) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	return w.f.Sync()
}

func (w *cappedFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	_ = w.f.Sync()
	err := w.f.Close()
	w.f = nil
	return err
}
