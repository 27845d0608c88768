package subtitles

import (
	"math"
	"os"
	"strings"

	"chapterize/internal/services"
)

// DefaultDurationTolerance is how far the final end timestamp may differ from
// the expected end before a transcript is treated as incomplete. Recognition
// engines trim trailing silence, so some slack is required.
const DefaultDurationTolerance = 30.0

// Validate decides whether a persisted transcript is complete and
// trustworthy. expectedEnd is the absolute end time the transcript should
// reach on the stitched timeline. A nil return means the file can be skipped;
// any error is tagged services.ErrValidation and means reprocess, never
// abort. A tolerance <= 0 selects DefaultDurationTolerance; a difference of
// exactly the tolerance is still valid.
func Validate(path string, expectedEnd, tolerance float64) error {
	if tolerance <= 0 {
		tolerance = DefaultDurationTolerance
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, "subtitles", "validate", "read transcript", err)
	}
	content := string(data)
	if strings.TrimSpace(content) == "" {
		return services.Wrap(services.ErrValidation, "subtitles", "validate", "empty transcript", nil)
	}
	// A complete transcript ends with the blank line that closes its last
	// entry; anything else means the writer was interrupted.
	if !strings.HasSuffix(content, "\n\n") {
		return services.Wrap(services.ErrValidation, "subtitles", "validate", "missing trailing blank line", nil)
	}

	lines := strings.Split(content, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if !strings.Contains(line, "-->") {
			continue
		}
		parts := strings.Split(line, "-->")
		if len(parts) != 2 {
			return services.Wrap(services.ErrValidation, "subtitles", "validate", "malformed timestamp line", nil)
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			return services.Wrap(services.ErrValidation, "subtitles", "validate", "parse final end timestamp", err)
		}
		if diff := math.Abs(end - expectedEnd); diff > tolerance {
			return services.Wrap(services.ErrValidation, "subtitles", "validate", "final timestamp does not reach expected duration", nil)
		}
		return nil
	}
	return services.Wrap(services.ErrValidation, "subtitles", "validate", "no timestamp lines found", nil)
}
