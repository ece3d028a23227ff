package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/you/chatscribe/internal/analytics"
	"github.com/you/chatscribe/internal/core"
)

func renderDoc(t *testing.T, msgs []core.ChatMessage, info core.VideoInfo) string {
	t.Helper()
	var buf bytes.Buffer
	if err := RenderHTML(&buf, msgs, info, analytics.Aggregate(msgs)); err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	return buf.String()
}

func TestRenderHTMLEscapesUntrustedText(t *testing.T) {
	msgs := []core.ChatMessage{{
		Timestamp: core.TimestampUsec(1000000),
		Author:    "<b>Eve</b>",
		Message:   "<script>alert(1)</script>",
	}}

	doc := renderDoc(t, msgs, core.VideoInfo{Title: "Test"})

	if strings.Contains(doc, "<script>alert(1)</script>") {
		t.Fatalf("message text embedded unescaped")
	}
	if !strings.Contains(doc, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Fatalf("expected escaped message text in document")
	}
	if strings.Contains(doc, "<b>Eve</b>") {
		t.Fatalf("author name embedded unescaped")
	}
}

func TestRenderHTMLSearchAttributeLowercased(t *testing.T) {
	msgs := []core.ChatMessage{{
		Timestamp: core.TimestampUsec(1000000),
		Author:    "Alice",
		Message:   "HELLO World",
	}}

	doc := renderDoc(t, msgs, core.VideoInfo{})
	if !strings.Contains(doc, `data-search="alice hello world"`) {
		t.Fatalf("missing lowercased search attribute:\n%s", doc)
	}
}

func TestRenderHTMLRolePrecedence(t *testing.T) {
	msgs := []core.ChatMessage{{
		Timestamp: core.TimestampUsec(1000000),
		Author:    "Boss",
		Message:   "hi",
		Owner:     true,
		Moderator: true,
		Sponsor:   true,
		Verified:  true,
	}}

	doc := renderDoc(t, msgs, core.VideoInfo{})

	// Owner wins the role color; the moderator class must not appear on the
	// author span.
	if !strings.Contains(doc, `class="author owner verified"`) {
		t.Fatalf("expected owner+verified author class, got:\n%s", doc)
	}
	if strings.Contains(doc, "author moderator") {
		t.Fatalf("moderator class should lose to owner")
	}
	if !strings.Contains(doc, ">OWNER<") {
		t.Fatalf("expected OWNER badge")
	}
	if strings.Contains(doc, ">MOD<") {
		t.Fatalf("MOD badge should lose to OWNER")
	}
	if !strings.Contains(doc, ">MEMBER<") {
		t.Fatalf("sponsor badge is additive and should render")
	}
}

func TestRenderHTMLModeratorWithoutOwner(t *testing.T) {
	msgs := []core.ChatMessage{{
		Timestamp: core.TimestampUsec(1000000),
		Author:    "Mod",
		Message:   "hi",
		Moderator: true,
	}}

	doc := renderDoc(t, msgs, core.VideoInfo{})
	if !strings.Contains(doc, `class="author moderator"`) {
		t.Fatalf("expected moderator author class")
	}
	if !strings.Contains(doc, ">MOD<") {
		t.Fatalf("expected MOD badge")
	}
}

func TestRenderHTMLHeaderStatsAndDefaults(t *testing.T) {
	msgs := []core.ChatMessage{
		{Timestamp: core.TimestampUsec(1000000), Author: "Alice", Message: "one", Owner: true},
		{Timestamp: core.TimestampUsec(2000000), Author: "Alice", Message: "two"},
	}

	doc := renderDoc(t, msgs, core.VideoInfo{})

	if !strings.Contains(doc, "YouTube Live Chat") {
		t.Fatalf("expected default title")
	}
	if !strings.Contains(doc, "Unknown Channel") {
		t.Fatalf("expected default channel")
	}
	if !strings.Contains(doc, "<strong>2</strong> messages") {
		t.Fatalf("expected message count in stats panel")
	}
	if !strings.Contains(doc, "<strong>1</strong> authors") {
		t.Fatalf("expected unique author count")
	}
	if !strings.Contains(doc, "<strong>2.0</strong> msgs/author") {
		t.Fatalf("expected one-decimal average")
	}
	if !strings.Contains(doc, "Alice <span class=\"count\">(2)</span>") {
		t.Fatalf("expected top-authors entry")
	}
	if !strings.Contains(doc, "00:00:01") {
		t.Fatalf("expected HH:MM:SS timestamp")
	}
}

func TestRenderHTMLAvatarOnlyWhenPresent(t *testing.T) {
	msgs := []core.ChatMessage{
		{Timestamp: core.TimestampUsec(1000000), Author: "A", Message: "x", AvatarURL: "https://img/a.jpg"},
		{Timestamp: core.TimestampUsec(2000000), Author: "B", Message: "y"},
	}

	doc := renderDoc(t, msgs, core.VideoInfo{})
	if got := strings.Count(doc, `<img class="avatar"`); got != 1 {
		t.Fatalf("avatar img count = %d, want 1", got)
	}
}

func TestRenderHTMLEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	err := RenderHTML(&buf, nil, core.VideoInfo{}, analytics.Stats{})
	if !errors.Is(err, core.ErrEmptyInput) {
		t.Fatalf("RenderHTML() error = %v, want ErrEmptyInput", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output bytes, got %d", buf.Len())
	}
}

func TestRenderHTMLIsSelfContained(t *testing.T) {
	msgs := []core.ChatMessage{{Timestamp: core.TimestampUsec(1), Author: "A", Message: "x"}}
	doc := renderDoc(t, msgs, core.VideoInfo{})

	for _, marker := range []string{"<link ", "src=\"http", "@import"} {
		if strings.Contains(doc, marker) {
			t.Fatalf("document references external resource via %q", marker)
		}
	}
	if !strings.Contains(doc, "<style>") || !strings.Contains(doc, "<script>") {
		t.Fatalf("expected inline style and script blocks")
	}
}
