package chapters

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"chapterize/internal/services"
)

// DefaultLogName is the marker log filename written into the book directory.
const DefaultLogName = "transcription.chapters"

// Marker is one detected chapter heading on the absolute stitched timeline.
// A marker with an empty title is the end-of-book sentinel.
type Marker struct {
	Timestamp float64
	Title     string
}

// Sentinel reports whether the marker is the end-of-book terminator.
func (m Marker) Sentinel() bool {
	return m.Title == ""
}

// Log appends chapter markers to a persistent text file. It is owned by the
// active transcript writer for the duration of a run; there is never more
// than one writer.
type Log struct {
	path string
}

// NewLog creates a marker log handle for the given path. The file is created
// lazily on first append.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Path returns the on-disk location of the log.
func (l *Log) Path() string {
	return l.path
}

// Append records a detected heading. The title is normalized before writing;
// headings that normalize to nothing are dropped so they cannot masquerade as
// the sentinel.
func (l *Log) Append(timestamp float64, title string) error {
	normalized := NormalizeTitle(title)
	if normalized == "" {
		return nil
	}
	return l.appendLine(fmt.Sprintf("%.3f, %s\n", timestamp, normalized))
}

// AppendSentinel terminates the log with the end-of-book marker, typically
// the total stitched duration.
func (l *Log) AppendSentinel(timestamp float64) error {
	return l.appendLine(fmt.Sprintf("%.3f,\n", timestamp))
}

func (l *Log) appendLine(line string) error {
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open marker log: %w", err)
	}
	if _, err := file.WriteString(line); err != nil {
		file.Close()
		return fmt.Errorf("append marker: %w", err)
	}
	return file.Close()
}

// PruneFrom rewrites the log keeping only markers strictly before offset and
// drops any sentinel. A run that reprocesses files starting at offset calls
// this once so stale markers from regenerated output cannot survive. A
// missing log is a no-op.
func (l *Log) PruneFrom(offset float64) error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read marker log: %w", err)
	}

	var kept []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		marker, err := parseMarkerLine(line)
		if err != nil {
			// Malformed lines are discarded with the stale region; the
			// parser would reject them anyway.
			continue
		}
		if marker.Sentinel() || marker.Timestamp >= offset {
			continue
		}
		kept = append(kept, line)
	}

	content := ""
	if len(kept) > 0 {
		content = strings.Join(kept, "\n") + "\n"
	}
	if err := os.WriteFile(l.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("rewrite marker log: %w", err)
	}
	return nil
}

// ParseMarkerLog reads a persisted marker log into ordered markers. It fails
// with a structural error when the log cannot represent a chaptered book:
// fewer than two lines, a malformed line, a sentinel anywhere but last, or a
// final line that is not the sentinel.
func ParseMarkerLog(path string) ([]Marker, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrStructural, "chapters", "parse", "open marker log", err)
	}
	defer file.Close()

	var markers []Marker
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		marker, err := parseMarkerLine(line)
		if err != nil {
			return nil, services.Wrap(services.ErrStructural, "chapters", "parse", fmt.Sprintf("malformed marker line %q", line), err)
		}
		markers = append(markers, marker)
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrStructural, "chapters", "parse", "read marker log", err)
	}

	if len(markers) < 2 {
		return nil, services.Wrap(services.ErrStructural, "chapters", "parse", "marker log needs at least one marker and the end-of-book sentinel", nil)
	}
	for i, marker := range markers {
		last := i == len(markers)-1
		if marker.Sentinel() != last {
			if last {
				return nil, services.Wrap(services.ErrStructural, "chapters", "parse", "marker log does not end with the sentinel", nil)
			}
			return nil, services.Wrap(services.ErrStructural, "chapters", "parse", "sentinel before end of marker log", nil)
		}
	}
	return markers, nil
}

func parseMarkerLine(line string) (Marker, error) {
	parts := strings.SplitN(line, ",", 2)
	if len(parts) != 2 {
		return Marker{}, errors.New("missing field separator")
	}
	timestamp, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Marker{}, fmt.Errorf("parse timestamp: %w", err)
	}
	if timestamp < 0 {
		return Marker{}, errors.New("negative timestamp")
	}
	return Marker{Timestamp: timestamp, Title: strings.TrimSpace(parts[1])}, nil
}

// BookChapter is the publishable chapter record: contiguous, non-overlapping
// spans derived from the ordered markers.
type BookChapter struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Title string  `json:"title"`
}

// BuildChapters derives chapter records from ordered markers. Each chapter
// ends where the next marker starts; the last chapter ends at the sentinel.
func BuildChapters(markers []Marker) ([]BookChapter, error) {
	if len(markers) < 2 {
		return nil, services.Wrap(services.ErrStructural, "chapters", "build", "need at least one marker and the sentinel", nil)
	}
	if !markers[len(markers)-1].Sentinel() {
		return nil, services.Wrap(services.ErrStructural, "chapters", "build", "final marker is not the sentinel", nil)
	}

	result := make([]BookChapter, 0, len(markers)-1)
	for i := 0; i < len(markers)-1; i++ {
		current := markers[i]
		next := markers[i+1]
		if current.Sentinel() {
			return nil, services.Wrap(services.ErrStructural, "chapters", "build", "sentinel before end of markers", nil)
		}
		if next.Timestamp < current.Timestamp {
			return nil, services.Wrap(services.ErrStructural, "chapters", "build", "marker timestamps decrease", nil)
		}
		result = append(result, BookChapter{
			ID:    i,
			Start: current.Timestamp,
			End:   next.Timestamp,
			Title: current.Title,
		})
	}
	return result, nil
}

// LoadChapters parses a marker log and derives its chapter records.
func LoadChapters(path string) ([]BookChapter, error) {
	markers, err := ParseMarkerLog(path)
	if err != nil {
		return nil, err
	}
	return BuildChapters(markers)
}

// WholeBook builds a single chapter spanning the entire runtime. Callers use
// it when a book with no detected chapters should still publish one chapter;
// that policy is always an explicit choice, never a silent fallback.
func WholeBook(title string, duration float64) []BookChapter {
	return []BookChapter{{ID: 0, Start: 0, End: duration, Title: title}}
}
