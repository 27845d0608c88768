package whisper

// Defaults for the engine invocation. The binary is the whisper-ctranslate2
// CLI (faster-whisper); any drop-in with the same flags and JSON output works.
const (
	DefaultBinary      = "whisper-ctranslate2"
	DefaultModel       = "base"
	DefaultDevice      = "cpu"
	DefaultComputeType = "int8"
	DefaultLanguage    = "en"
	DefaultWorkers     = 4

	// Whisper transcribes audiobooks better when primed for the domain.
	initialPrompt = "This is an audiobook with chapters."
)

// Config holds the engine invocation parameters.
type Config struct {
	Binary      string
	Model       string
	Device      string
	ComputeType string
	Language    string
	Workers     int
}

func (c Config) withDefaults() Config {
	if c.Binary == "" {
		c.Binary = DefaultBinary
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.ComputeType == "" {
		c.ComputeType = DefaultComputeType
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.Workers < 1 {
		c.Workers = DefaultWorkers
	}
	return c
}
