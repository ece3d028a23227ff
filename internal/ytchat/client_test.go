package ytchat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/you/chatscribe/internal/core"
)

// rewriteTransport redirects all requests to the test server regardless of
// the original host.
type rewriteTransport string

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	target, err := url.Parse(string(rt))
	if err != nil {
		return nil, err
	}
	req.URL.Scheme = target.Scheme
	req.URL.Host = target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func watchPage(continuation string) string {
	return `<!DOCTYPE html><html><head><script>
var ytInitialPlayerResponse = {"videoDetails":{"videoId":"abc123","title":"Big Launch","author":"Space Channel","shortDescription":"desc","isLive":false},"microformat":{"playerMicroformatRenderer":{"publishDate":"2024-03-01"}}};
var key = {"INNERTUBE_API_KEY":"test-key","INNERTUBE_CLIENT_VERSION":"2.2024"};
window["ytInitialData"] = {"contents":{"liveChatRenderer":{"continuations":[{"liveChatReplayContinuationData":{"continuation":"` + continuation + `"}}]}}};
</script></head><body></body></html>`
}

func chatPage(t *testing.T, authors []string, next string) string {
	t.Helper()
	actions := make([]string, 0, len(actionsFixture(authors)))
	for _, a := range actionsFixture(authors) {
		actions = append(actions, a)
	}
	page := `{"continuationContents":{"liveChatContinuation":{` +
		`"actions":[` + strings.Join(actions, ",") + `]`
	if next != "" {
		page += `,"continuations":[{"liveChatReplayContinuationData":{"continuation":"` + next + `"}}]`
	}
	page += `}}}`
	if !json.Valid([]byte(page)) {
		t.Fatalf("invalid fixture: %s", page)
	}
	return page
}

func actionsFixture(authors []string) []string {
	out := make([]string, 0, len(authors))
	for i, author := range authors {
		out = append(out, `{"replayChatItemAction":{"actions":[`+
			textAction(author, "hello", "100000"+string(rune('0'+i)))+`]}}`)
	}
	return out
}

func TestFetchTranscriptPagesThroughReplay(t *testing.T) {
	polls := 0
	handler := http.NewServeMux()
	handler.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(watchPage("cont-1")))
	})
	handler.HandleFunc("/youtubei/v1/live_chat/get_live_chat_replay", func(w http.ResponseWriter, r *http.Request) {
		polls++
		var req struct {
			Continuation string `json:"continuation"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode poll request: %v", err)
		}
		switch req.Continuation {
		case "cont-1":
			_, _ = w.Write([]byte(chatPage(t, []string{"Alice", "Bob"}, "cont-2")))
		case "cont-2":
			_, _ = w.Write([]byte(chatPage(t, []string{"Carol"}, "")))
		default:
			t.Fatalf("unexpected continuation %q", req.Continuation)
		}
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	client := NewClient(&http.Client{Transport: rewriteTransport(server.URL), Timeout: 2 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	actions, info, err := client.FetchTranscript(ctx, "abc123")
	if err != nil {
		t.Fatalf("FetchTranscript() error = %v", err)
	}
	if polls != 2 {
		t.Fatalf("expected 2 poll pages, got %d", polls)
	}
	if len(actions) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(actions))
	}
	if info.Title != "Big Launch" || info.Channel != "Space Channel" {
		t.Fatalf("unexpected video info: %+v", info)
	}

	msgs, err := Normalize(actions, nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(msgs) != 3 || msgs[0].Author != "Alice" || msgs[2].Author != "Carol" {
		t.Fatalf("unexpected normalized transcript: %+v", msgs)
	}
}

func TestFetchTranscriptMissingChatIsAcquisitionError(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<!DOCTYPE html><html><head><script>
var key = {"INNERTUBE_API_KEY":"test-key","INNERTUBE_CLIENT_VERSION":"2.2024"};
window["ytInitialData"] = {"contents":{}};
</script></head><body></body></html>`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	client := NewClient(&http.Client{Transport: rewriteTransport(server.URL), Timeout: 2 * time.Second})

	_, _, err := client.FetchTranscript(context.Background(), "abc123")
	acq, ok := core.AsAcquisition(err)
	if !ok {
		t.Fatalf("expected AcquisitionError, got %v", err)
	}
	if acq.Reason != "Live chat is not available for this video" {
		t.Fatalf("unexpected reason %q", acq.Reason)
	}
}

func TestFetchTranscriptNotFound(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	client := NewClient(&http.Client{Transport: rewriteTransport(server.URL), Timeout: 2 * time.Second})

	_, _, err := client.FetchTranscript(context.Background(), "missing")
	if _, ok := core.AsAcquisition(err); !ok {
		t.Fatalf("expected AcquisitionError, got %v", err)
	}
}
