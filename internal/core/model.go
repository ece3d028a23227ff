package core

// ChatMessage is the canonical, renderer-agnostic record every downstream
// consumer (analytics, CSV export, HTML render) works with.
type ChatMessage struct {
	Timestamp       Timestamp `json:"timestamp"`
	Author          string    `json:"author"`
	AuthorChannelID string    `json:"author_channel_id"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	Message         string    `json:"message"`
	Verified        bool      `json:"is_verified"`
	Owner           bool      `json:"is_chat_owner"`
	Sponsor         bool      `json:"is_chat_sponsor"`
	Moderator       bool      `json:"is_chat_moderator"`
}

// VideoInfo carries the video metadata paired with a transcript. All fields
// are optional; exports fall back to defaults when empty.
type VideoInfo struct {
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	Description string `json:"description"`
	PublishedAt string `json:"published_at"`
}
