package ytchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/you/chatscribe/internal/core"
)

const (
	defaultMaxPages    = 500
	defaultHTTPTimeout = 15 * time.Second
	userAgent          = "Mozilla/5.0 (compatible; chatscribe/1.0)"
)

// Client fetches chat transcripts through YouTube's web ("innertube")
// endpoints. It bootstraps from the public watch page and pages through the
// live chat (or replay) continuation chain, handing raw actions to the
// normalizer untouched.
type Client struct {
	http     *http.Client
	maxPages int
}

// NewClient creates a client backed by the provided HTTP client. If client
// is nil a default client with a sane timeout is used.
func NewClient(client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{http: client, maxPages: defaultMaxPages}
}

type bootstrapState struct {
	apiKey        string
	clientVersion string
	continuation  string
	live          bool
	info          core.VideoInfo
}

// FetchTranscript retrieves all available raw chat actions for a video
// together with the metadata scraped from the watch page. Acquisition
// failures (missing video, chat disabled) surface as *core.AcquisitionError
// for the caller to forward unchanged.
func (c *Client) FetchTranscript(ctx context.Context, videoID string) ([]RawAction, core.VideoInfo, error) {
	state, err := c.bootstrap(ctx, videoID)
	if err != nil {
		return nil, core.VideoInfo{}, err
	}

	endpoint := "https://www.youtube.com/youtubei/v1/live_chat/get_live_chat_replay"
	if state.live {
		endpoint = "https://www.youtube.com/youtubei/v1/live_chat/get_live_chat"
	}
	endpoint += "?key=" + url.QueryEscape(state.apiKey)

	var actions []RawAction
	continuation := state.continuation
	for page := 0; continuation != "" && page < c.maxPages; page++ {
		if ctx.Err() != nil {
			return nil, core.VideoInfo{}, ctx.Err()
		}

		pageActions, next, err := c.poll(ctx, endpoint, state.clientVersion, continuation)
		if err != nil {
			return nil, core.VideoInfo{}, err
		}
		actions = append(actions, pageActions...)

		// Live chats hand back a continuation forever; a page without new
		// actions means we have caught up.
		if len(pageActions) == 0 || next == "" || next == continuation {
			break
		}
		continuation = next
	}

	log.Printf("ytchat: fetched %d raw actions for video %s", len(actions), videoID)
	return actions, state.info, nil
}

func (c *Client) bootstrap(ctx context.Context, videoID string) (bootstrapState, error) {
	watchURL := "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
	if err != nil {
		return bootstrapState{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return bootstrapState{}, errors.Wrap(err, "fetch watch page")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return bootstrapState{}, &core.AcquisitionError{Reason: "Video not found"}
	}
	if resp.StatusCode != http.StatusOK {
		return bootstrapState{}, fmt.Errorf("ytchat: watch page status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return bootstrapState{}, errors.Wrap(err, "read watch page")
	}
	text := string(body)

	state := bootstrapState{
		apiKey:        extractString(text, `"INNERTUBE_API_KEY":"`),
		clientVersion: extractString(text, `"INNERTUBE_CLIENT_VERSION":"`),
	}
	if state.apiKey == "" || state.clientVersion == "" {
		return bootstrapState{}, &core.AcquisitionError{Reason: "Video not found"}
	}

	state.info, state.live = extractVideoDetails(text)

	var initJSON string
	markers := []string{
		`ytInitialData"] = `,
		`ytInitialData" = `,
		`ytInitialData":`,
		`ytInitialData = `,
		`window["ytInitialData"] = `,
	}
	for _, marker := range markers {
		initJSON = extractJSONObject(text, marker)
		if initJSON != "" {
			break
		}
	}
	if initJSON == "" {
		return bootstrapState{}, &core.AcquisitionError{Reason: "This video does not have live chat data"}
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(initJSON), &data); err != nil {
		return bootstrapState{}, errors.Wrap(err, "parse initial data")
	}

	state.continuation = findInitialContinuation(data)
	if state.continuation == "" {
		return bootstrapState{}, &core.AcquisitionError{Reason: "Live chat is not available for this video"}
	}

	return state, nil
}

func (c *Client) poll(ctx context.Context, endpoint, clientVersion, continuation string) ([]RawAction, string, error) {
	payload := map[string]any{
		"context": map[string]any{
			"client": map[string]any{
				"clientName":    "WEB",
				"clientVersion": clientVersion,
				"hl":            "en",
			},
		},
		"continuation": continuation,
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", errors.Wrap(err, "poll chat")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return nil, "", fmt.Errorf("ytchat: poll status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, "", errors.Wrap(err, "read poll response")
	}

	actions, err := decodePageActions(body)
	if err != nil {
		return nil, "", err
	}

	var generic map[string]any
	if err := json.Unmarshal(body, &generic); err != nil {
		return nil, "", errors.Wrap(err, "decode poll response")
	}
	next := extractContinuation(generic)

	return actions, next, nil
}

// decodePageActions pulls the actions array out of either response shape:
// top-level (push updates) or nested under continuationContents (replay and
// initial pages).
func decodePageActions(body []byte) ([]RawAction, error) {
	var page struct {
		Actions              []RawAction `json:"actions"`
		ContinuationContents *struct {
			LiveChatContinuation struct {
				Actions []RawAction `json:"actions"`
			} `json:"liveChatContinuation"`
		} `json:"continuationContents"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, errors.Wrap(err, "decode chat actions")
	}

	actions := page.Actions
	if page.ContinuationContents != nil {
		actions = append(actions, page.ContinuationContents.LiveChatContinuation.Actions...)
	}
	return actions, nil
}

func extractContinuation(payload map[string]any) string {
	cont := ""

	var walk func(any)
	walk = func(v any) {
		if cont != "" {
			return
		}
		switch val := v.(type) {
		case map[string]any:
			if s, ok := val["continuation"].(string); ok && s != "" {
				cont = s
				return
			}
			if cmd := digMap(val, "continuationEndpoint", "continuationCommand"); cmd != nil {
				if s, ok := cmd["token"].(string); ok && s != "" {
					cont = s
					return
				}
			}
			for _, child := range val {
				walk(child)
			}
		case []any:
			for _, child := range val {
				walk(child)
			}
		}
	}

	walk(payload)
	return cont
}

type videoDetailsPayload struct {
	VideoDetails struct {
		VideoID          string `json:"videoId"`
		Title            string `json:"title"`
		Author           string `json:"author"`
		ShortDescription string `json:"shortDescription"`
		IsLive           bool   `json:"isLive"`
	} `json:"videoDetails"`
	Microformat struct {
		PlayerMicroformatRenderer struct {
			PublishDate string `json:"publishDate"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
}

func extractVideoDetails(text string) (core.VideoInfo, bool) {
	raw := extractJSONObject(text, "ytInitialPlayerResponse = ")
	if raw == "" {
		raw = extractJSONObject(text, `ytInitialPlayerResponse":`)
	}
	if raw == "" {
		return core.VideoInfo{}, false
	}

	var payload videoDetailsPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return core.VideoInfo{}, false
	}

	info := core.VideoInfo{
		Title:       payload.VideoDetails.Title,
		Channel:     payload.VideoDetails.Author,
		Description: payload.VideoDetails.ShortDescription,
		PublishedAt: payload.Microformat.PlayerMicroformatRenderer.PublishDate,
	}
	return info, payload.VideoDetails.IsLive
}

func extractJSONObject(text, marker string) string {
	idx := strings.Index(text, marker)
	if idx == -1 {
		return ""
	}
	start := idx + len(marker)
	for start < len(text) && (text[start] == ' ' || text[start] == '\n' || text[start] == '\r' || text[start] == '\t') {
		start++
	}
	if start >= len(text) || text[start] != '{' {
		return ""
	}
	depth := 0
	inString := false
	escape := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			if escape {
				escape = false
				continue
			}
			switch ch {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func extractString(text, marker string) string {
	idx := strings.Index(text, marker)
	if idx == -1 {
		return ""
	}
	start := idx + len(marker)
	end := strings.Index(text[start:], "\"")
	if end == -1 {
		return ""
	}
	return text[start : start+end]
}

func digMap(m map[string]any, keys ...string) map[string]any {
	current := m
	for _, key := range keys {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

func findInitialContinuation(data map[string]any) string {
	type queueItem struct {
		value      any
		inLiveChat bool
	}

	queue := []queueItem{{value: data}}

	for len(queue) > 0 {
		var item queueItem
		item, queue = queue[0], queue[1:]
		switch v := item.value.(type) {
		case map[string]any:
			currentLiveChat := item.inLiveChat || mapHasLiveChatKey(v)
			if currentLiveChat {
				if cont := continuationFromNode(v); cont != "" {
					return cont
				}
			}
			for key, child := range v {
				nextLiveChat := currentLiveChat || isLiveChatKey(key)
				queue = append(queue, queueItem{value: child, inLiveChat: nextLiveChat})
			}
		case []any:
			for _, child := range v {
				queue = append(queue, queueItem{value: child, inLiveChat: item.inLiveChat})
			}
		}
	}
	return ""
}

func isLiveChatKey(key string) bool {
	return strings.Contains(strings.ToLower(key), "livechat")
}

func mapHasLiveChatKey(m map[string]any) bool {
	for key := range m {
		if isLiveChatKey(key) {
			return true
		}
	}
	return false
}

func continuationFromNode(node map[string]any) string {
	if arr, ok := node["continuations"].([]any); ok {
		for _, elem := range arr {
			if m, ok := elem.(map[string]any); ok {
				for _, key := range []string{"liveChatReplayContinuationData", "invalidationContinuationData", "timedContinuationData", "reloadContinuationData"} {
					if next := digMap(m, key); next != nil {
						if s, ok := next["continuation"].(string); ok && s != "" {
							return s
						}
					}
				}
			}
		}
	}
	if endpoint := digMap(node, "continuationEndpoint", "continuationCommand"); endpoint != nil {
		if s, ok := endpoint["token"].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
