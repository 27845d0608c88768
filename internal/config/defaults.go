package config

// Default returns the baseline configuration applied before any TOML file is
// parsed over it.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   "",
			CacheDir: "~/.cache/chapterize",
		},
		Whisper: Whisper{
			Binary:      "whisper-ctranslate2",
			Model:       "base",
			Device:      "cpu",
			ComputeType: "int8",
			Language:    "en",
			Workers:     4,
		},
		FFprobe: FFprobe{
			Binary: "ffprobe",
		},
		Processing: Processing{
			DurationToleranceSeconds: 30,
			AudioExtensions:          []string{".mp3", ".m4a", ".m4b", ".ogg", ".flac", ".wav"},
			TagChapterEntries:        true,
		},
		Audiobookshelf: Audiobookshelf{
			RequestTimeout: 30,
		},
		Watch: Watch{
			SettleSeconds: 10,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
