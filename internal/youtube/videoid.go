package youtube

import "regexp"

// videoIDPatterns are tried in order; the first capture group is the ID
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([\w-]+)`),
	regexp.MustCompile(`(?:youtube\.com/embed/)([\w-]+)`),
	regexp.MustCompile(`(?:youtube\.com/v/)([\w-]+)`),
}

// ResolveVideoID extracts the video ID from a YouTube URL.
// It reports false when no known URL form matches.
func ResolveVideoID(rawURL string) (string, bool) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}
