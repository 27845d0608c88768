package subtitles

import (
	"os"
	"strconv"
	"strings"

	"chapterize/internal/services"
)

// LastEntry returns the index and absolute end time of the final entry in a
// transcript. Resumed runs use it to reconstruct stitch offsets from disk
// instead of trusting any in-memory state from a previous run.
func LastEntry(path string) (index int, end float64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, services.Wrap(services.ErrValidation, "subtitles", "resume", "read transcript", err)
	}

	blocks := strings.Split(strings.TrimSpace(string(data)), "\n\n")
	for i := len(blocks) - 1; i >= 0; i-- {
		block := strings.TrimSpace(blocks[i])
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			break
		}
		parsedIndex, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			break
		}
		parts := strings.Split(lines[1], "-->")
		if len(parts) != 2 {
			break
		}
		parsedEnd, err := ParseTimestamp(parts[1])
		if err != nil {
			break
		}
		return parsedIndex, parsedEnd, nil
	}
	return 0, 0, services.Wrap(services.ErrValidation, "subtitles", "resume", "no complete entry found", nil)
}
