// Package audiobookshelf publishes chapter records to an Audiobookshelf
// server over its REST API.
package audiobookshelf
