package youtube

import "testing"

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"Watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"Watch URL with extra params", "https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ&t=10s", "dQw4w9WgXcQ"},
		{"Short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"Short link with timestamp", "https://youtu.be/dQw4w9WgXcQ?t=42", "dQw4w9WgXcQ"},
		{"Embed URL", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"Shorts URL", "https://www.youtube.com/shorts/abc12345678", "abc12345678"},
		{"Shorts URL no scheme", "youtube.com/shorts/abc12345678", "abc12345678"},
		{"Legacy v path", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"Not YouTube", "https://example.com/watch?v=dQw4w9WgXcQ", ""},
		{"ID too short", "https://www.youtube.com/shorts/abc123", ""},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractVideoID(tt.url); got != tt.want {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsVideoID(t *testing.T) {
	valid := []string{"dQw4w9WgXcQ", "abc12345678", "A-B_c1D2e3F"}
	for _, id := range valid {
		if !IsVideoID(id) {
			t.Errorf("IsVideoID(%q) = false, want true", id)
		}
	}

	invalid := []string{"", "short", "waytoolongvideoid", "has spaces!", "https://youtu.be/dQw4w9WgXcQ"}
	for _, id := range invalid {
		if IsVideoID(id) {
			t.Errorf("IsVideoID(%q) = true, want false", id)
		}
	}
}

func TestShortsDetection(t *testing.T) {
	if !IsShortsURL("https://www.youtube.com/shorts/abc12345678") {
		t.Error("IsShortsURL() = false for a Shorts URL")
	}
	if IsShortsURL("https://www.youtube.com/watch?v=abc12345678") {
		t.Error("IsShortsURL() = true for a watch URL")
	}
	if !IsYouTubeURL("https://youtu.be/abc12345678") {
		t.Error("IsYouTubeURL() = false for a youtu.be link")
	}
	if IsYouTubeURL("https://vimeo.com/12345") {
		t.Error("IsYouTubeURL() = true for a non-YouTube URL")
	}
}

func TestCanonicalURLs(t *testing.T) {
	if got := ShortsURL("abc12345678"); got != "https://www.youtube.com/shorts/abc12345678" {
		t.Errorf("ShortsURL() = %q", got)
	}
	if got := WatchURL("abc12345678"); got != "https://www.youtube.com/watch?v=abc12345678" {
		t.Errorf("WatchURL() = %q", got)
	}
}
