package export

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/you/chatscribe/internal/analytics"
	"github.com/you/chatscribe/internal/core"
)

// RenderHTML writes a self-contained chat replay document: header, stats
// panel, top-authors ranking, the full message list, and a client-side
// substring search over embedded per-message data attributes. All author
// and message text goes through html/template's contextual escaping; chat
// text is untrusted. Zero messages fail with core.ErrEmptyInput.
func RenderHTML(w io.Writer, messages []core.ChatMessage, info core.VideoInfo, stats analytics.Stats) error {
	if len(messages) == 0 {
		return core.ErrEmptyInput
	}

	view := documentView{
		Title:       info.Title,
		Channel:     info.Channel,
		PublishedAt: info.PublishedAt,
		Stats:       stats,
		Avg:         fmt.Sprintf("%.1f", stats.AvgMessagesPerAuthor),
		Messages:    make([]messageView, 0, len(messages)),
	}
	if view.Title == "" {
		view.Title = "YouTube Live Chat"
	}
	if view.Channel == "" {
		view.Channel = "Unknown Channel"
	}
	if view.PublishedAt == "" {
		view.PublishedAt = "Unknown"
	}

	for _, msg := range messages {
		view.Messages = append(view.Messages, buildMessageView(msg))
	}

	return errors.Wrap(documentTemplate.Execute(w, view), "render html")
}

type documentView struct {
	Title       string
	Channel     string
	PublishedAt string
	Stats       analytics.Stats
	Avg         string
	Messages    []messageView
}

type badgeView struct {
	Class string
	Label string
}

type messageView struct {
	Clock       string
	Avatar      string
	AuthorClass string
	Badges      []badgeView
	Author      string
	Message     string
	Search      string
}

func buildMessageView(msg core.ChatMessage) messageView {
	view := messageView{
		Clock:   msg.Timestamp.Clock(),
		Avatar:  msg.AvatarURL,
		Author:  msg.Author,
		Message: msg.Message,
		Search:  strings.ToLower(msg.Author + " " + msg.Message),
	}

	// Only one role colors the author name: owner wins over moderator.
	// Sponsor and verified are additive decorations.
	authorClass := "author"
	switch {
	case msg.Owner:
		authorClass += " owner"
		view.Badges = append(view.Badges, badgeView{Class: "badge owner", Label: "OWNER"})
	case msg.Moderator:
		authorClass += " moderator"
		view.Badges = append(view.Badges, badgeView{Class: "badge moderator", Label: "MOD"})
	}
	if msg.Sponsor {
		view.Badges = append(view.Badges, badgeView{Class: "badge sponsor", Label: "MEMBER"})
	}
	if msg.Verified {
		authorClass += " verified"
	}
	view.AuthorClass = authorClass

	return view
}

var documentTemplate = template.Must(template.New("chat").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}} - Chat Replay</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: "Roboto", "Arial", sans-serif; background-color: #0f0f0f; color: #fff; padding: 20px; }
.container { max-width: 1200px; margin: 0 auto; }
.header { background-color: #212121; padding: 20px; border-radius: 12px; margin-bottom: 20px; }
.header h1 { font-size: 24px; margin-bottom: 10px; }
.header .channel { color: #aaa; font-size: 14px; }
.stats { background-color: #212121; padding: 15px 20px; border-radius: 12px; margin-bottom: 20px; display: flex; flex-wrap: wrap; gap: 30px; }
.stat { color: #aaa; font-size: 14px; }
.stat strong { color: #fff; }
.top-authors { background-color: #212121; padding: 15px 20px; border-radius: 12px; margin-bottom: 20px; }
.top-authors h2 { font-size: 16px; margin-bottom: 10px; }
.top-authors ol { margin-left: 20px; color: #aaa; font-size: 13px; }
.top-authors li { padding: 2px 0; }
.top-authors .count { color: #fff; }
.search-box { margin-bottom: 20px; }
.search-box input { width: 100%; padding: 10px 14px; border-radius: 20px; border: 1px solid #303030; background-color: #121212; color: #fff; font-size: 14px; outline: none; }
.chat-container { background-color: #212121; border-radius: 12px; padding: 20px; max-height: 80vh; overflow-y: auto; }
.chat-message { display: flex; padding: 8px 0; align-items: flex-start; }
.chat-message:hover { background-color: #2a2a2a; }
.chat-message.hidden { display: none; }
.timestamp { color: #717171; font-size: 12px; min-width: 80px; margin-right: 15px; }
.avatar { width: 24px; height: 24px; border-radius: 50%; margin-right: 10px; }
.author { font-weight: 500; margin-right: 8px; color: #fff; font-size: 13px; }
.author.owner { color: #ffd600; }
.author.moderator { color: #5e84f1; }
.author.verified { display: inline-flex; align-items: center; }
.author.verified::after { content: "\2713"; display: inline-block; background-color: #606060; color: #fff; border-radius: 50%; width: 14px; height: 14px; font-size: 10px; text-align: center; line-height: 14px; margin-left: 4px; }
.badge { display: inline-block; background-color: #cc0000; color: #fff; font-size: 10px; padding: 2px 6px; border-radius: 2px; margin-right: 6px; font-weight: 500; }
.badge.owner { background-color: #ffd600; color: #0f0f0f; }
.badge.moderator { background-color: #5e84f1; }
.badge.sponsor { background-color: #0f9d58; }
.message { color: #fff; font-size: 13px; line-height: 18px; word-wrap: break-word; flex: 1; }
.message-content { display: flex; flex-direction: column; flex: 1; }
.author-line { display: flex; align-items: center; margin-bottom: 4px; }
.chat-container::-webkit-scrollbar { width: 8px; }
.chat-container::-webkit-scrollbar-track { background: #0f0f0f; }
.chat-container::-webkit-scrollbar-thumb { background: #717171; border-radius: 4px; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>{{.Title}}</h1>
    <div class="channel">{{.Channel}}</div>
  </div>

  <div class="stats">
    <div class="stat"><strong>{{.Stats.TotalMessages}}</strong> messages</div>
    <div class="stat"><strong>{{.Stats.UniqueAuthors}}</strong> authors</div>
    <div class="stat"><strong>{{.Avg}}</strong> msgs/author</div>
    <div class="stat"><strong>{{.Stats.OwnerCount}}</strong> owner</div>
    <div class="stat"><strong>{{.Stats.ModeratorCount}}</strong> moderator</div>
    <div class="stat"><strong>{{.Stats.SponsorCount}}</strong> member</div>
    <div class="stat"><strong>{{.Stats.VerifiedCount}}</strong> verified</div>
    <div class="stat">Published: <strong>{{.PublishedAt}}</strong></div>
  </div>

  <div class="top-authors">
    <h2>Top authors</h2>
    <ol>
{{- range .Stats.TopAuthors}}
      <li>{{.Author}} <span class="count">({{.Count}})</span></li>
{{- end}}
    </ol>
  </div>

  <div class="search-box">
    <input type="text" id="search" placeholder="Search author or message..." autocomplete="off">
  </div>

  <div class="chat-container" id="chat">
{{- range .Messages}}
    <div class="chat-message" data-search="{{.Search}}">
      <div class="timestamp">{{.Clock}}</div>
{{- if .Avatar}}
      <img class="avatar" src="{{.Avatar}}" alt="" loading="lazy">
{{- end}}
      <div class="message-content">
        <div class="author-line">
{{- range .Badges}}
          <span class="{{.Class}}">{{.Label}}</span>
{{- end}}
          <span class="{{.AuthorClass}}">{{.Author}}</span>
        </div>
        <div class="message">{{.Message}}</div>
      </div>
    </div>
{{- end}}
  </div>
</div>
<script>
(function () {
  var input = document.getElementById("search");
  var blocks = document.getElementById("chat").getElementsByClassName("chat-message");
  input.addEventListener("input", function () {
    var needle = input.value.toLowerCase();
    for (var i = 0; i < blocks.length; i++) {
      var haystack = blocks[i].getAttribute("data-search") || "";
      if (needle === "" || haystack.indexOf(needle) !== -1) {
        blocks[i].classList.remove("hidden");
      } else {
        blocks[i].classList.add("hidden");
      }
    }
  });
})();
</script>
</body>
</html>
`))
