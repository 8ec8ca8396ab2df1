package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"linktrace/internal/domain"
)

// retentionDays is the rolling window of the durable timing log. Entries
// older than this are pruned on every append.
const retentionDays = 31

const dateLayout = "2006-01-02"

// TimingLog is a single JSON-array file of timing samples. The file has no
// row-level append primitive, so every append is a whole-file
// read-prune-write; the mutex serializes overlapping fan-out completions so
// none of them lose updates.
type TimingLog struct {
	mu   sync.Mutex
	path string
}

func NewTimingLog(path string) *TimingLog {
	return &TimingLog{path: path}
}

// Append records one sample dated by now's local calendar day and prunes
// everything older than the retention window.
func (l *TimingLog) Append(now time.Time, url string, elapsedMillis int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	samples, err := l.read()
	if err != nil {
		return err
	}

	samples = append(samples, domain.TimingSample{
		Date:          now.Format(dateLayout),
		URL:           url,
		ElapsedMillis: elapsedMillis,
	})

	cutoff := now.AddDate(0, 0, -retentionDays).Format(dateLayout)
	kept := samples[:0]
	for _, s := range samples {
		if s.Date >= cutoff {
			kept = append(kept, s)
		}
	}

	return l.write(kept)
}

// Query returns samples whose date falls inclusively between start and end.
// Empty bounds are open-ended.
func (l *TimingLog) Query(start, end string) ([]domain.TimingSample, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	samples, err := l.read()
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.TimingSample, 0, len(samples))
	for _, s := range samples {
		if start != "" && s.Date < start {
			continue
		}
		if end != "" && s.Date > end {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered, nil
}

func (l *TimingLog) read() ([]domain.TimingSample, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read timing log: %w", err)
	}

	var samples []domain.TimingSample
	if len(data) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("parse timing log: %w", err)
	}
	return samples, nil
}

func (l *TimingLog) write(samples []domain.TimingSample) error {
	if samples == nil {
		samples = []domain.TimingSample{}
	}

	data, err := json.Marshal(samples)
	if err != nil {
		return fmt.Errorf("encode timing log: %w", err)
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("create timing log directory: %w", err)
		}
	}

	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write timing log: %w", err)
	}
	return nil
}
