// Command chapterize transcribes audiobook directories and derives chapter
// markers from the transcripts.
package main
