package ytchat

import (
	"regexp"

	"github.com/you/chatscribe/internal/core"
)

// videoIDPatterns is the ordered list of accepted URL shapes. Resolution is
// first-match-wins across this list, not longest-match. The capture stops at
// the first '&', newline, '?' or '#'.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/live/([^&\n?#]+)`),
}

// ResolveVideoID extracts the video identifier from an arbitrary URL string.
// No trimming or case-folding is applied beyond the capture itself. When no
// pattern matches it returns core.ErrInvalidReference; callers must not
// proceed to acquisition.
func ResolveVideoID(raw string) (string, error) {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(raw); m != nil && m[1] != "" {
			return m[1], nil
		}
	}
	return "", core.ErrInvalidReference
}
