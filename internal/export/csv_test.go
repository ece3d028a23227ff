package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/you/chatscribe/internal/core"
)

func sampleMessages() []core.ChatMessage {
	return []core.ChatMessage{
		{
			Timestamp: core.TimestampUsec(1709296496000000),
			Author:    "Alice",
			Message:   "Hello, \"world\"",
			Owner:     true,
			Verified:  true,
		},
		{
			Timestamp: core.TimestampISO("2024-03-01T12:35:00Z"),
			Author:    "Bob",
			Message:   "line one\nline two",
			Sponsor:   true,
		},
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleMessages()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 records, got %d rows", len(records))
	}

	wantHeader := []string{"Timestamp", "Author", "Message", "Is Verified", "Is Owner", "Is Sponsor", "Is Moderator"}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}

	want := [][]string{
		{"2024-03-01T12:34:56Z", "Alice", "Hello, \"world\"", "true", "true", "false", "false"},
		{"2024-03-01T12:35:00Z", "Bob", "line one\nline two", "false", "false", "true", "false"},
	}
	for i, row := range want {
		for j, col := range row {
			if records[i+1][j] != col {
				t.Fatalf("record[%d][%d] = %q, want %q", i, j, records[i+1][j], col)
			}
		}
	}
}

func TestWriteCSVISOPassthrough(t *testing.T) {
	msgs := []core.ChatMessage{{
		Timestamp: core.TimestampISO("2024-03-01T21:34:56+09:00"),
		Author:    "Carol",
	}}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, msgs); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-read csv: %v", err)
	}
	if records[1][0] != "2024-03-01T21:34:56+09:00" {
		t.Fatalf("timestamp column = %q, want unchanged string", records[1][0])
	}
}

func TestWriteCSVEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, nil)
	if !errors.Is(err, core.ErrEmptyInput) {
		t.Fatalf("WriteCSV() error = %v, want ErrEmptyInput", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output bytes, got %d", buf.Len())
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name  string
		title string
		ext   string
		want  string
	}{
		{"spaces", "My Great Stream", "csv", "My_Great_Stream_chat.csv"},
		{"empty title", "", "html", "chat_chat.html"},
		{"no spaces", "solo", "csv", "solo_chat.csv"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Filename(core.VideoInfo{Title: tc.title}, tc.ext)
			if got != tc.want {
				t.Fatalf("Filename() = %q, want %q", got, tc.want)
			}
		})
	}
}
