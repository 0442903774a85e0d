package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"moodloop/app/config"

	"github.com/samber/do"
)

// Service appends completed turns to a JSONL file, one record per line.
// The file is an append-only log: it is never read back into the live
// conversation state, only served by the status endpoint.
type Service struct {
	path string
	mu   sync.RWMutex
	log  *slog.Logger
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewWith(cfg.Chat.TranscriptPath, slog.Default())
}

func NewWith(path string, log *slog.Logger) (*Service, error) {
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create transcript dir: %w", err)
			}
		}
	}

	return &Service{
		path: path,
		log:  log,
	}, nil
}

func (s *Service) Enabled() bool {
	return s.path != ""
}

func (s *Service) Append(rec Record) error {
	if !s.Enabled() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open transcript file: %w", err)
	}
	defer file.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	writer := bufio.NewWriter(file)
	if _, err = writer.WriteString(string(data) + "\n"); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	if err = writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	return nil
}

func (s *Service) Load() ([]Record, error) {
	if !s.Enabled() {
		return []Record{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.OpenFile(s.path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript file: %w", err)
	}
	defer file.Close()

	records := make([]Record, 0)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec Record
		if err = json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse JSON line: %w", err)
		}

		records = append(records, rec)
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading transcript file: %w", err)
	}

	return records, nil
}
