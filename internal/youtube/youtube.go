// Package youtube recognizes YouTube watch and Shorts URLs and extracts the
// 11-character video ID they carry.
package youtube

import (
	"regexp"
	"strings"
)

var (
	idRegex     = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	shortsRegex = regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`)
	watchRegex  = regexp.MustCompile(`(?:youtu\.be/|youtube\.com/(?:watch\?(?:.*&)?v=|embed/|v/))([a-zA-Z0-9_-]{11})`)
)

// IsVideoID reports whether s is a bare 11-character video ID.
func IsVideoID(s string) bool {
	return idRegex.MatchString(s)
}

// IsYouTubeURL reports whether the URL points at YouTube in any form.
func IsYouTubeURL(url string) bool {
	return strings.Contains(url, "youtube.com") || strings.Contains(url, "youtu.be")
}

// IsShortsURL reports whether the URL is a YouTube Shorts URL.
func IsShortsURL(url string) bool {
	return strings.Contains(url, "youtube.com/shorts")
}

// ExtractVideoID pulls the video ID out of a watch, embed, youtu.be, or
// Shorts URL. Returns "" if no ID is present.
func ExtractVideoID(url string) string {
	if m := shortsRegex.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	if m := watchRegex.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// ShortsURL builds the canonical Shorts page URL for a video ID. Batch
// captures always load this form because it autoplays without consent
// interstitials on headless sessions.
func ShortsURL(videoID string) string {
	return "https://www.youtube.com/shorts/" + videoID
}

// WatchURL builds the standard watch page URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
