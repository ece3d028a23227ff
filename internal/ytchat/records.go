package ytchat

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RawAction is one entry of the "actions" array in a live chat (or replay)
// response. Exactly one wrapper field is populated; records with none are
// non-chat noise (engagement panels, mode changes) and get skipped.
type RawAction struct {
	AddChatItem    *AddChatItemAction    `json:"addChatItemAction,omitempty"`
	ReplayChatItem *ReplayChatItemAction `json:"replayChatItemAction,omitempty"`
}

// AddChatItemAction wraps a single chat item.
type AddChatItemAction struct {
	Item ChatItem `json:"item"`
}

// ReplayChatItemAction batches actions recorded at one video offset. The
// replay endpoint wraps everything in these.
type ReplayChatItemAction struct {
	Actions []RawAction `json:"actions"`
}

// ChatItem is the closed set of renderer variants the normalizer accepts.
// Exactly one variant is populated per item; unknown renderer kinds decode
// to an item with all variants nil and are skipped, never guessed at.
type ChatItem struct {
	TextMessage    *MessageRenderer `json:"liveChatTextMessageRenderer,omitempty"`
	PaidMessage    *MessageRenderer `json:"liveChatPaidMessageRenderer,omitempty"`
	MembershipItem *MessageRenderer `json:"liveChatMembershipItemRenderer,omitempty"`
}

// MessageRenderer is the shared payload shape of the accepted variants.
// Membership items carry no Message field; paid messages additionally carry
// a purchase amount we do not consume.
type MessageRenderer struct {
	ID                      string      `json:"id"`
	TimestampUsec           UsecValue   `json:"timestampUsec"`
	AuthorName              *SimpleText `json:"authorName"`
	AuthorExternalChannelID string      `json:"authorExternalChannelId"`
	AuthorPhoto             *Thumbnails `json:"authorPhoto"`
	AuthorBadges            []BadgeItem `json:"authorBadges"`
	Message                 *RunsText   `json:"message"`
}

// SimpleText is YouTube's {"simpleText": "..."} text node.
type SimpleText struct {
	SimpleText string `json:"simpleText"`
}

// RunsText is YouTube's segmented text node. Message text is the in-order
// concatenation of all run fragments; non-text runs (emoji) contribute
// nothing.
type RunsText struct {
	Runs []TextRun `json:"runs"`
}

type TextRun struct {
	Text string `json:"text"`
}

// Text joins all run fragments in order.
func (r *RunsText) Text() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	for _, run := range r.Runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

// Thumbnails is an avatar thumbnail list, ordered lowest to highest
// resolution.
type Thumbnails struct {
	Thumbnails []Thumbnail `json:"thumbnails"`
}

type Thumbnail struct {
	URL string `json:"url"`
}

// Best returns the last (highest resolution) thumbnail URL, or "".
func (t *Thumbnails) Best() string {
	if t == nil || len(t.Thumbnails) == 0 {
		return ""
	}
	return t.Thumbnails[len(t.Thumbnails)-1].URL
}

// BadgeItem wraps one author badge renderer.
type BadgeItem struct {
	LiveChatAuthorBadgeRenderer *BadgeRenderer `json:"liveChatAuthorBadgeRenderer"`
}

type BadgeRenderer struct {
	Icon    *BadgeIcon `json:"icon"`
	Tooltip string     `json:"tooltip"`
}

type BadgeIcon struct {
	IconType string `json:"iconType"`
}

// IconType returns the badge's icon-type string, or "" when absent.
func (b BadgeItem) IconType() string {
	if b.LiveChatAuthorBadgeRenderer == nil || b.LiveChatAuthorBadgeRenderer.Icon == nil {
		return ""
	}
	return b.LiveChatAuthorBadgeRenderer.Icon.IconType
}

// UsecValue is a microsecond timestamp that YouTube serializes sometimes as
// a quoted string, sometimes as a bare number. Missing or unparseable
// values decode to 0, which is preserved downstream as an observable
// degenerate case rather than rejected.
type UsecValue int64

func (u *UsecValue) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*u = 0
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			*u = 0
			return nil
		}
		n = int64(f)
	}
	*u = UsecValue(n)
	return nil
}

func (u UsecValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(u), 10))
}
