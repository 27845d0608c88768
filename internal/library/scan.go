package library

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// AudioFile is one discovered audio file. Immutable once discovered.
type AudioFile struct {
	// Path is the absolute path to the audio file.
	Path string
	// Base is the file name without directory or extension.
	Base string
}

// TranscriptPath returns the SRT transcript path paired with the audio file.
func (f AudioFile) TranscriptPath() string {
	ext := filepath.Ext(f.Path)
	return strings.TrimSuffix(f.Path, ext) + ".srt"
}

// Discover recursively finds audio files under root with one of the given
// extensions (lowercase, dot-prefixed). Results are sorted lexicographically
// by path so multi-part books process in a stable order.
func Discover(root string, extensions []string) ([]AudioFile, error) {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	var files []AudioFile
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		files = append(files, AudioFile{Path: path, Base: base})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
