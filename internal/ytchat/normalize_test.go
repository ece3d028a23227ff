package ytchat

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/you/chatscribe/internal/core"
	"github.com/you/chatscribe/internal/ingesttrace"
)

func decodeActions(t *testing.T, raw string) []RawAction {
	t.Helper()
	var actions []RawAction
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return actions
}

func textAction(author, text, usec string) string {
	return `{"addChatItemAction":{"item":{"liveChatTextMessageRenderer":{
		"id":"msg",
		"timestampUsec":"` + usec + `",
		"authorName":{"simpleText":"` + author + `"},
		"authorExternalChannelId":"UC` + author + `",
		"message":{"runs":[{"text":"` + text + `"}]}
	}}}}`
}

func TestNormalizeTextMessage(t *testing.T) {
	raw := `[{"addChatItemAction":{"item":{"liveChatTextMessageRenderer":{
		"id":"abc",
		"timestampUsec":"1709296496000000",
		"authorName":{"simpleText":"Alice"},
		"authorExternalChannelId":"UCalice",
		"authorPhoto":{"thumbnails":[{"url":"https://img/low.jpg"},{"url":"https://img/high.jpg"}]},
		"message":{"runs":[{"text":"Hello "},{"text":"world"}]}
	}}}}]`

	msgs, err := Normalize(decodeActions(t, raw), nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	msg := msgs[0]
	if msg.Author != "Alice" {
		t.Fatalf("Author = %q", msg.Author)
	}
	if msg.AuthorChannelID != "UCalice" {
		t.Fatalf("AuthorChannelID = %q", msg.AuthorChannelID)
	}
	if msg.Message != "Hello world" {
		t.Fatalf("Message = %q, want run concatenation", msg.Message)
	}
	if msg.AvatarURL != "https://img/high.jpg" {
		t.Fatalf("AvatarURL = %q, want last (highest resolution) thumbnail", msg.AvatarURL)
	}
	if msg.Timestamp.Usec() != 1709296496000000 {
		t.Fatalf("Timestamp.Usec() = %d", msg.Timestamp.Usec())
	}
}

func TestNormalizeDefaults(t *testing.T) {
	raw := `[{"addChatItemAction":{"item":{"liveChatTextMessageRenderer":{"id":"bare"}}}}]`

	msgs, err := Normalize(decodeActions(t, raw), nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	msg := msgs[0]
	if msg.Author != "Unknown" {
		t.Fatalf("Author = %q, want Unknown default", msg.Author)
	}
	if msg.Message != "" {
		t.Fatalf("Message = %q, want empty", msg.Message)
	}
	if msg.AvatarURL != "" {
		t.Fatalf("AvatarURL = %q, want empty", msg.AvatarURL)
	}
	if msg.Timestamp.Usec() != 0 {
		t.Fatalf("Timestamp.Usec() = %d, want preserved 0", msg.Timestamp.Usec())
	}
}

func TestNormalizeMembershipItemHasNoText(t *testing.T) {
	raw := `[{"addChatItemAction":{"item":{"liveChatMembershipItemRenderer":{
		"id":"member1",
		"timestampUsec":"1000000",
		"authorName":{"simpleText":"Bob"}
	}}}}]`

	msgs, err := Normalize(decodeActions(t, raw), nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if msgs[0].Message != "" {
		t.Fatalf("Message = %q, want empty for membership event", msgs[0].Message)
	}
}

func TestNormalizeSkipsUnknownVariantsPreservingOrder(t *testing.T) {
	raw := `[` +
		textAction("First", "one", "1000000") + `,
		{"addChatItemAction":{"item":{"liveChatViewerEngagementMessageRenderer":{"id":"noise"}}}},
		{"markChatItemAsDeletedAction":{"targetItemId":"x"}},` +
		textAction("Second", "two", "2000000") + `]`

	report := ingesttrace.NewReport("test", "vid")
	msgs, err := Normalize(decodeActions(t, raw), report)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Author != "First" || msgs[1].Author != "Second" {
		t.Fatalf("order not preserved: %q then %q", msgs[0].Author, msgs[1].Author)
	}

	snap := report.Snapshot()
	if snap[ingesttrace.StageNormalizedOK] != 2 {
		t.Fatalf("normalized_ok = %d, want 2", snap[ingesttrace.StageNormalizedOK])
	}
	if snap[ingesttrace.StageDropped("unknown_renderer")] != 1 {
		t.Fatalf("dropped_unknown_renderer = %d, want 1", snap[ingesttrace.StageDropped("unknown_renderer")])
	}
	if snap[ingesttrace.StageDropped("no_action_wrapper")] != 1 {
		t.Fatalf("dropped_no_action_wrapper = %d, want 1", snap[ingesttrace.StageDropped("no_action_wrapper")])
	}
}

func TestNormalizeUnwrapsReplayActions(t *testing.T) {
	raw := `[{"replayChatItemAction":{"actions":[` +
		textAction("Replayed", "hi", "5000000") + `]}}]`

	msgs, err := Normalize(decodeActions(t, raw), nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(msgs) != 1 || msgs[0].Author != "Replayed" {
		t.Fatalf("replay action not unwrapped: %+v", msgs)
	}
}

func TestNormalizeAllNoiseIsEmptyTranscript(t *testing.T) {
	raw := `[{"addChatItemAction":{"item":{"liveChatPlaceholderItemRenderer":{"id":"p"}}}}]`

	if _, err := Normalize(decodeActions(t, raw), nil); !errors.Is(err, core.ErrEmptyTranscript) {
		t.Fatalf("Normalize() error = %v, want ErrEmptyTranscript", err)
	}
	if _, err := Normalize(nil, nil); !errors.Is(err, core.ErrEmptyTranscript) {
		t.Fatalf("Normalize(nil) error = %v, want ErrEmptyTranscript", err)
	}
}

func TestBadgeDerivationIndependentFlags(t *testing.T) {
	tests := []struct {
		name     string
		iconType string
		want     core.ChatMessage
	}{
		{"verified", "verifiedBadge", core.ChatMessage{Verified: true}},
		{"moderator", "MODERATOR", core.ChatMessage{Moderator: true}},
		{"owner", "OWNER", core.ChatMessage{Owner: true}},
		{"member", "MEMBER_LEVEL_1", core.ChatMessage{Sponsor: true}},
		{"combined", "ownerVerifiedBadge", core.ChatMessage{Owner: true, Verified: true}},
		{"unknown kept lossy", "SOMETHING_ELSE", core.ChatMessage{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var msg core.ChatMessage
			applyBadges(&msg, []BadgeItem{{
				LiveChatAuthorBadgeRenderer: &BadgeRenderer{Icon: &BadgeIcon{IconType: tc.iconType}},
			}})
			if msg.Verified != tc.want.Verified || msg.Owner != tc.want.Owner ||
				msg.Sponsor != tc.want.Sponsor || msg.Moderator != tc.want.Moderator {
				t.Fatalf("flags = %+v, want %+v", msg, tc.want)
			}
		})
	}
}

func TestBadgeDerivationScansAllBadges(t *testing.T) {
	var msg core.ChatMessage
	applyBadges(&msg, []BadgeItem{
		{LiveChatAuthorBadgeRenderer: &BadgeRenderer{Icon: &BadgeIcon{IconType: "moderator"}}},
		{LiveChatAuthorBadgeRenderer: &BadgeRenderer{Icon: &BadgeIcon{IconType: "member"}}},
		{}, // badge with no renderer is ignored
	})
	if !msg.Moderator || !msg.Sponsor {
		t.Fatalf("expected moderator and sponsor flags, got %+v", msg)
	}
}
