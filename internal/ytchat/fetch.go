package ytchat

import (
	"context"

	"github.com/you/chatscribe/internal/core"
	"github.com/you/chatscribe/internal/ingesttrace"
)

// Fetch retrieves and normalizes the full transcript for a video. It wires
// the raw actions through the normalizer and logs a per-video ingest summary.
func (c *Client) Fetch(ctx context.Context, videoID string) ([]core.ChatMessage, core.VideoInfo, error) {
	report := ingesttrace.NewReport("innertube", videoID)

	actions, info, err := c.FetchTranscript(ctx, videoID)
	if err != nil {
		return nil, core.VideoInfo{}, err
	}

	messages, err := Normalize(actions, report)
	report.LogSummary(nil, "transcript normalized")
	if err != nil {
		return nil, core.VideoInfo{}, err
	}
	return messages, info, nil
}
