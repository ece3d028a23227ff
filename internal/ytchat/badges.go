package ytchat

import (
	"strings"

	"github.com/you/chatscribe/internal/core"
)

// badgeRule flags a message when the badge icon-type contains pattern
// (case-insensitive). The rules are evaluated independently against every
// badge, so one record may set several flags; icon types matching no rule
// are silently ignored.
type badgeRule struct {
	pattern string
	apply   func(*core.ChatMessage)
}

var badgeRules = []badgeRule{
	{"verifiedbadge", func(m *core.ChatMessage) { m.Verified = true }},
	{"moderator", func(m *core.ChatMessage) { m.Moderator = true }},
	{"owner", func(m *core.ChatMessage) { m.Owner = true }},
	{"member", func(m *core.ChatMessage) { m.Sponsor = true }},
}

func applyBadges(msg *core.ChatMessage, badges []BadgeItem) {
	for _, badge := range badges {
		iconType := strings.ToLower(badge.IconType())
		if iconType == "" {
			continue
		}
		for _, rule := range badgeRules {
			if strings.Contains(iconType, rule.pattern) {
				rule.apply(msg)
			}
		}
	}
}
