// Package export serializes canonical transcripts into the downloadable
// artifacts: a CSV table and a standalone searchable HTML document.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/you/chatscribe/internal/core"
)

// csvHeader is fixed: the same seven columns in the same order every time,
// regardless of which flags the data actually sets.
var csvHeader = []string{
	"Timestamp", "Author", "Message", "Is Verified", "Is Owner", "Is Sponsor", "Is Moderator",
}

// WriteCSV serializes the transcript as delimited text. Integer timestamps
// are converted to ISO-8601; string timestamps pass through unchanged. Zero
// messages fail with core.ErrEmptyInput before any byte is written.
func WriteCSV(w io.Writer, messages []core.ChatMessage) error {
	if len(messages) == 0 {
		return core.ErrEmptyInput
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, msg := range messages {
		record := []string{
			msg.Timestamp.ISO(),
			msg.Author,
			msg.Message,
			strconv.FormatBool(msg.Verified),
			strconv.FormatBool(msg.Owner),
			strconv.FormatBool(msg.Sponsor),
			strconv.FormatBool(msg.Moderator),
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "write csv record")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// Filename derives the download name from the video title: spaces become
// underscores, suffixed "_chat.<ext>". An empty title falls back to "chat".
func Filename(info core.VideoInfo, ext string) string {
	title := info.Title
	if title == "" {
		title = "chat"
	}
	return strings.ReplaceAll(title, " ", "_") + "_chat." + ext
}
