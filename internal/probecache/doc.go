// Package probecache persists probed audio durations in SQLite so repeated
// classification of large libraries does not re-run ffprobe on unchanged
// files. Entries are keyed by path and invalidated when size or modification
// time changes. The cache holds derived data only; deleting it is always
// safe.
package probecache
