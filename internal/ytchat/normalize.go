package ytchat

import (
	"github.com/you/chatscribe/internal/core"
	"github.com/you/chatscribe/internal/ingesttrace"
)

const unknownAuthor = "Unknown"

// Normalize converts raw chat actions into the canonical message sequence,
// preserving source order among emitted messages. Records with no
// recognizable action wrapper or renderer variant are skipped without
// shifting the rest. A nil report disables stage accounting.
//
// An all-noise input yields core.ErrEmptyTranscript so callers can tell
// "nothing parseable" apart from "nothing retrieved".
func Normalize(actions []RawAction, report *ingesttrace.Report) ([]core.ChatMessage, error) {
	messages := normalizeActions(actions, report)
	if len(messages) == 0 {
		return nil, core.ErrEmptyTranscript
	}
	return messages, nil
}

func normalizeActions(actions []RawAction, report *ingesttrace.Report) []core.ChatMessage {
	var messages []core.ChatMessage
	for _, action := range actions {
		if action.ReplayChatItem != nil {
			messages = append(messages, normalizeActions(action.ReplayChatItem.Actions, report)...)
			continue
		}
		report.Inc(ingesttrace.StageSeenFromSource)
		if action.AddChatItem == nil {
			report.Inc(ingesttrace.StageDropped("no_action_wrapper"))
			continue
		}
		renderer := action.AddChatItem.Item.renderer()
		if renderer == nil {
			report.Inc(ingesttrace.StageDropped("unknown_renderer"))
			continue
		}
		messages = append(messages, normalizeRenderer(renderer))
		report.Inc(ingesttrace.StageNormalizedOK)
	}
	return messages
}

// renderer returns the populated variant payload, or nil for renderer kinds
// outside the accepted set.
func (i ChatItem) renderer() *MessageRenderer {
	switch {
	case i.TextMessage != nil:
		return i.TextMessage
	case i.PaidMessage != nil:
		return i.PaidMessage
	case i.MembershipItem != nil:
		// Membership events carry no free text; Message stays nil and
		// normalizes to "".
		return i.MembershipItem
	default:
		return nil
	}
}

func normalizeRenderer(r *MessageRenderer) core.ChatMessage {
	author := unknownAuthor
	if r.AuthorName != nil && r.AuthorName.SimpleText != "" {
		author = r.AuthorName.SimpleText
	}

	msg := core.ChatMessage{
		Timestamp:       core.TimestampUsec(int64(r.TimestampUsec)),
		Author:          author,
		AuthorChannelID: r.AuthorExternalChannelID,
		AvatarURL:       r.AuthorPhoto.Best(),
		Message:         r.Message.Text(),
	}
	applyBadges(&msg, r.AuthorBadges)
	return msg
}
