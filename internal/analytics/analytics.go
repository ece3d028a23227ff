// Package analytics derives transcript-wide statistics from a canonical
// message sequence.
package analytics

import (
	"math"
	"sort"

	"github.com/you/chatscribe/internal/core"
)

const topAuthorLimit = 10

// AuthorCount is one entry of the top-authors ranking.
type AuthorCount struct {
	Author string `json:"author"`
	Count  int    `json:"count"`
}

// Stats summarizes one transcript. Role counters are independent: a message
// with several flags set increments several counters.
type Stats struct {
	TotalMessages        int           `json:"total_messages"`
	UniqueAuthors        int           `json:"unique_authors"`
	TopAuthors           []AuthorCount `json:"top_authors"`
	OwnerCount           int           `json:"owner_count"`
	ModeratorCount       int           `json:"moderator_count"`
	SponsorCount         int           `json:"sponsor_count"`
	VerifiedCount        int           `json:"verified_count"`
	AvgMessagesPerAuthor float64       `json:"avg_messages_per_author"`
}

// Aggregate computes statistics over the transcript in one pass plus a
// stable sort for the ranking.
//
// Author identity is display-name equality, not channel-id equality. Names
// can collide; that approximation is deliberate and kept for parity with
// the rendered output.
func Aggregate(messages []core.ChatMessage) Stats {
	stats := Stats{TotalMessages: len(messages)}

	counts := make(map[string]int, len(messages))
	firstSeen := make(map[string]int, len(messages))

	for i, msg := range messages {
		if _, ok := counts[msg.Author]; !ok {
			firstSeen[msg.Author] = i
		}
		counts[msg.Author]++

		if msg.Owner {
			stats.OwnerCount++
		}
		if msg.Moderator {
			stats.ModeratorCount++
		}
		if msg.Sponsor {
			stats.SponsorCount++
		}
		if msg.Verified {
			stats.VerifiedCount++
		}
	}

	stats.UniqueAuthors = len(counts)

	ranked := make([]AuthorCount, 0, len(counts))
	for author, count := range counts {
		ranked = append(ranked, AuthorCount{Author: author, Count: count})
	}
	// Ties keep first-appearance order so identical input renders
	// identical output.
	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].Count != ranked[b].Count {
			return ranked[a].Count > ranked[b].Count
		}
		return firstSeen[ranked[a].Author] < firstSeen[ranked[b].Author]
	})
	if len(ranked) > topAuthorLimit {
		ranked = ranked[:topAuthorLimit]
	}
	stats.TopAuthors = ranked

	authors := stats.UniqueAuthors
	if authors < 1 {
		authors = 1
	}
	avg := float64(stats.TotalMessages) / float64(authors)
	stats.AvgMessagesPerAuthor = math.Round(avg*10) / 10

	return stats
}
