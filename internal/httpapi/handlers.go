package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/you/chatscribe/internal/analytics"
	"github.com/you/chatscribe/internal/core"
	"github.com/you/chatscribe/internal/export"
	"github.com/you/chatscribe/internal/ytchat"
)

// BuildInfo describes the compiled binary.
type BuildInfo struct {
	Version  string
	Revision string
	BuiltAt  time.Time
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type infoResponse struct {
	Version  string `json:"version"`
	Revision string `json:"rev"`
	BuiltAt  string `json:"built_at"`
	Go       string `json:"go"`
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	resp := infoResponse{
		Version:  s.opts.Build.Version,
		Revision: s.opts.Build.Revision,
		Go:       runtime.Version(),
	}
	if !s.opts.Build.BuiltAt.IsZero() {
		resp.BuiltAt = s.opts.Build.BuiltAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

type fetchRequest struct {
	URL string `json:"url"`
}

type fetchResponse struct {
	VideoID   string          `json:"video_id"`
	VideoInfo core.VideoInfo  `json:"video_info"`
	ChatData  chatData        `json:"chat_data"`
	Stats     analytics.Stats `json:"stats"`
}

type chatData struct {
	Messages []core.ChatMessage `json:"messages"`
	Count    int                `json:"count"`
}

func (s *Server) handleFetchChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	defer r.Body.Close()

	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "No URL provided")
		return
	}

	videoID, err := ytchat.ResolveVideoID(req.URL)
	if err != nil {
		s.metrics.IncFetches("invalid_url")
		writeError(w, http.StatusBadRequest, "Invalid YouTube URL")
		return
	}

	messages, info, err := s.fetcher.Fetch(r.Context(), videoID)
	if err != nil {
		s.writeFetchError(w, videoID, err)
		return
	}

	stats := analytics.Aggregate(messages)
	s.metrics.IncFetches("ok")
	s.metrics.ObserveTranscript(len(messages))

	writeJSON(w, http.StatusOK, fetchResponse{
		VideoID:   videoID,
		VideoInfo: info,
		ChatData:  chatData{Messages: messages, Count: len(messages)},
		Stats:     stats,
	})
}

// writeFetchError maps the acquisition/normalization taxonomy onto HTTP
// responses. Acquisition reasons are forwarded verbatim.
func (s *Server) writeFetchError(w http.ResponseWriter, videoID string, err error) {
	if acq, ok := core.AsAcquisition(err); ok {
		s.metrics.IncFetches("acquisition_error")
		slog.Warn("acquisition failed", "video_id", videoID, "reason", acq.Reason)
		writeError(w, http.StatusBadRequest, acq.Reason)
		return
	}
	if errors.Is(err, core.ErrEmptyTranscript) {
		s.metrics.IncFetches("empty_transcript")
		writeError(w, http.StatusUnprocessableEntity, "No chat messages could be parsed for this video")
		return
	}
	s.metrics.IncFetches("error")
	slog.Error("fetch failed", "video_id", videoID, "err", err)
	writeError(w, http.StatusInternalServerError, "Could not fetch chat messages")
}

type exportRequest struct {
	Messages  []core.ChatMessage `json:"messages"`
	VideoInfo core.VideoInfo     `json:"video_info"`
}

func (s *Server) decodeExport(w http.ResponseWriter, r *http.Request) (exportRequest, bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return exportRequest{}, false
	}
	defer r.Body.Close()

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return exportRequest{}, false
	}
	return req, true
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeExport(w, r)
	if !ok {
		return
	}

	// Render to a buffer first so an error never leaves a partial export
	// on the wire.
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, req.Messages); err != nil {
		s.writeExportError(w, "csv", err)
		return
	}
	s.metrics.IncExports("csv")

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(req.VideoInfo, "csv")+`"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportHTML(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeExport(w, r)
	if !ok {
		return
	}

	stats := analytics.Aggregate(req.Messages)

	var buf bytes.Buffer
	if err := export.RenderHTML(&buf, req.Messages, req.VideoInfo, stats); err != nil {
		s.writeExportError(w, "html", err)
		return
	}
	s.metrics.IncExports("html")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(req.VideoInfo, "html")+`"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) writeExportError(w http.ResponseWriter, format string, err error) {
	if errors.Is(err, core.ErrEmptyInput) {
		writeError(w, http.StatusBadRequest, "No messages to export")
		return
	}
	slog.Error("export failed", "format", format, "err", err)
	writeError(w, http.StatusInternalServerError, "export failed")
}
