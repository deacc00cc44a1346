// Package sources holds the YouTube implementation of the two network-bound
// pipeline stages.
//
// YouTube implementation is split across three files by responsibility:
//
//	youtube_innertube.go: player response types, constants, and JSON extraction
//	youtube_catalog.go: caption track listing (watch page or ANDROID /player)
//	youtube_timedtext.go: timed-text payload fetching and parsing
package sources
