// Package core holds playback rules: stream detection and progress math
package core

import (
	"math"
	"net/url"
	"path"
	"strings"
)

// StreamType tells the player how to open a video URL
type StreamType string

const (
	StreamHLS   StreamType = "hls"
	StreamMP4   StreamType = "mp4"
	StreamEmbed StreamType = "embed"
)

const (
	// WatchedThreshold is the progress percentage at which an episode counts as watched
	WatchedThreshold = 90.0

	// HistoryLimit is the number of history entries kept per user
	HistoryLimit = 50
)

// embedHosts are video sites that can only be played through their own player
var embedHosts = []string{
	"youtube.com",
	"youtu.be",
	"youtube-nocookie.com",
	"vimeo.com",
	"dailymotion.com",
	"dai.ly",
}

// DetectStreamType classifies a video URL. HLS playlists end in .m3u8, known
// video sites are embedded, and anything else is played as a progressive file.
func DetectStreamType(videoURL string) StreamType {
	u, err := url.Parse(strings.TrimSpace(videoURL))
	if err != nil {
		return StreamMP4
	}

	host := strings.ToLower(u.Hostname())
	for _, h := range embedHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return StreamEmbed
		}
	}

	if strings.EqualFold(path.Ext(u.Path), ".m3u8") {
		return StreamHLS
	}
	return StreamMP4
}

// ComputeProgress returns a percentage in [0, 100]. It is derived from
// position and duration when duration is known, otherwise from reported.
func ComputeProgress(position, duration int, reported *float64) float64 {
	var p float64
	switch {
	case duration > 0:
		p = float64(position) / float64(duration) * 100
	case reported != nil:
		p = *reported
	}

	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return math.Round(p*100) / 100
}

// IsWatched reports whether progress marks content as watched
func IsWatched(progress float64) bool {
	return progress >= WatchedThreshold
}
