// Package ytapi wraps the YouTube Data API v3 for the two acquisition calls
// the service needs: video metadata and the live chat message loop. Messages
// arrive with ISO-8601 timestamps and resolved author flags, so this path
// bypasses renderer normalization entirely.
package ytapi

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Code-Hex/synchro"
	"github.com/Code-Hex/synchro/tz"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/you/chatscribe/internal/core"
)

const pageSize = 2000

// Client talks to the Data API with an API key that can be swapped at
// runtime (see keywatch.go). The underlying service is rebuilt lazily after
// a key change.
type Client struct {
	extraOpts []option.ClientOption

	mu     sync.Mutex
	apiKey string
	svc    *youtube.Service
}

// New creates a client for the given API key. Extra options are passed to
// the service constructor (tests inject an endpoint override).
func New(apiKey string, opts ...option.ClientOption) *Client {
	return &Client{apiKey: apiKey, extraOpts: opts}
}

// SetAPIKey swaps the API key. The next call builds a fresh service.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key == c.apiKey {
		return
	}
	c.apiKey = key
	c.svc = nil
}

func (c *Client) service(ctx context.Context) (*youtube.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc != nil {
		return c.svc, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("ytapi: no api key configured")
	}
	opts := append([]option.ClientOption{option.WithAPIKey(c.apiKey)}, c.extraOpts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ytapi: create service: %w", err)
	}
	c.svc = svc
	return svc, nil
}

// VideoInfo fetches snippet metadata for a video.
func (c *Client) VideoInfo(ctx context.Context, videoID string) (core.VideoInfo, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return core.VideoInfo{}, err
	}

	resp, err := svc.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return core.VideoInfo{}, apiError(err)
	}
	if len(resp.Items) == 0 {
		return core.VideoInfo{}, &core.AcquisitionError{Reason: "Video not found"}
	}

	snippet := resp.Items[0].Snippet
	return core.VideoInfo{
		Title:       snippet.Title,
		Channel:     snippet.ChannelTitle,
		Description: snippet.Description,
		PublishedAt: snippet.PublishedAt,
	}, nil
}

// Fetch retrieves the full live chat for a video: metadata lookup, chat id
// resolution, then the paged message loop. Unavailable chat surfaces as
// *core.AcquisitionError with the reason forwarded unchanged.
func (c *Client) Fetch(ctx context.Context, videoID string) ([]core.ChatMessage, core.VideoInfo, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, core.VideoInfo{}, err
	}

	resp, err := svc.Videos.List([]string{"snippet", "liveStreamingDetails"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, core.VideoInfo{}, apiError(err)
	}
	if len(resp.Items) == 0 {
		return nil, core.VideoInfo{}, &core.AcquisitionError{Reason: "Video not found"}
	}

	video := resp.Items[0]
	info := core.VideoInfo{}
	if video.Snippet != nil {
		info = core.VideoInfo{
			Title:       video.Snippet.Title,
			Channel:     video.Snippet.ChannelTitle,
			Description: video.Snippet.Description,
			PublishedAt: video.Snippet.PublishedAt,
		}
	}

	if video.LiveStreamingDetails == nil {
		return nil, info, &core.AcquisitionError{Reason: "This video does not have live chat data"}
	}
	chatID := video.LiveStreamingDetails.ActiveLiveChatId
	if chatID == "" {
		return nil, info, &core.AcquisitionError{Reason: "Live chat is not available for this video"}
	}

	var messages []core.ChatMessage
	pageToken := ""
	for {
		call := svc.LiveChatMessages.List(chatID, []string{"snippet", "authorDetails"}).
			MaxResults(pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		chatResp, err := call.Do()
		if err != nil {
			return nil, info, apiError(err)
		}

		for _, item := range chatResp.Items {
			messages = append(messages, convertItem(item))
		}

		pageToken = chatResp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if len(messages) == 0 {
		return nil, info, core.ErrEmptyTranscript
	}
	return messages, info, nil
}

func convertItem(item *youtube.LiveChatMessage) core.ChatMessage {
	msg := core.ChatMessage{}
	if item.Snippet != nil {
		msg.Timestamp = core.TimestampISO(item.Snippet.PublishedAt)
		msg.Message = item.Snippet.DisplayMessage
		if _, err := synchro.ParseISO[tz.UTC](item.Snippet.PublishedAt); err != nil {
			slog.Warn("unparseable publishedAt kept verbatim",
				"published_at", item.Snippet.PublishedAt, "err", err)
		}
	}
	if item.AuthorDetails != nil {
		msg.Author = item.AuthorDetails.DisplayName
		msg.AuthorChannelID = item.AuthorDetails.ChannelId
		msg.AvatarURL = item.AuthorDetails.ProfileImageUrl
		msg.Verified = item.AuthorDetails.IsVerified
		msg.Owner = item.AuthorDetails.IsChatOwner
		msg.Sponsor = item.AuthorDetails.IsChatSponsor
		msg.Moderator = item.AuthorDetails.IsChatModerator
	}
	if msg.Author == "" {
		msg.Author = "Unknown"
	}
	return msg
}

// apiError folds Data API failures into the opaque acquisition taxonomy,
// mirroring how the service reports them to callers.
func apiError(err error) error {
	if gerr, ok := err.(*googleapi.Error); ok {
		return &core.AcquisitionError{Reason: fmt.Sprintf("YouTube API error: %s", gerr.Message)}
	}
	return &core.AcquisitionError{Reason: err.Error()}
}
