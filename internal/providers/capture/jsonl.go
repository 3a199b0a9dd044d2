package capture

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sandevgo/screenmate/internal/core"
	"github.com/sandevgo/screenmate/pkg/log"
)

// FileSource tails a JSONL file of snapshots written by an external capture
// agent (OCR, window tracker). Each Capture call returns the last snapshot
// appended since the previous call; an empty snapshot means nothing new,
// which the filter downstream drops on length.
type FileSource struct {
	path string

	mu     sync.Mutex
	offset int64
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Capture(ctx context.Context) (core.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return core.Snapshot{}, nil
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("open snapshot file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("stat snapshot file: %w", err)
	}

	// Truncated or rotated file: start over.
	if info.Size() < f.offset {
		f.offset = 0
	}
	if info.Size() == f.offset {
		return core.Snapshot{}, nil
	}

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return core.Snapshot{}, fmt.Errorf("seek snapshot file: %w", err)
	}

	var last core.Snapshot
	found := false

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var snap core.Snapshot
		if err := json.Unmarshal([]byte(line), &snap); err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("skipping malformed snapshot line")
			continue
		}
		last = snap
		found = true
	}
	if err := scanner.Err(); err != nil {
		return core.Snapshot{}, fmt.Errorf("read snapshot file: %w", err)
	}

	f.offset = info.Size()

	if !found {
		return core.Snapshot{}, nil
	}
	if last.Timestamp == 0 {
		last.Timestamp = core.NowUnix()
	}
	return last, nil
}
