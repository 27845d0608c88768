// Package watchfs triggers processing runs when audio files land in a
// watched directory. Events are debounced so a multi-file copy settles
// before a run starts.
package watchfs
