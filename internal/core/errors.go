package core

import "errors"

var (
	// ErrInvalidReference is returned when no video-id pattern matches the
	// input URL. Callers must not proceed to acquisition.
	ErrInvalidReference = errors.New("no video id found in url")

	// ErrEmptyTranscript is returned when acquisition succeeded but
	// normalization yielded zero messages. Distinct from acquisition
	// failure so callers can word the two cases differently.
	ErrEmptyTranscript = errors.New("no parseable chat messages")

	// ErrEmptyInput is returned by exporters given zero messages. No
	// output bytes are produced.
	ErrEmptyInput = errors.New("no messages to export")
)

// AcquisitionError is an opaque passthrough from the acquisition layer (not
// found, chat disabled, timeout, transport failure). The core forwards the
// reason unchanged and never interprets it.
type AcquisitionError struct {
	Reason string
}

func (e *AcquisitionError) Error() string { return e.Reason }

// AsAcquisition unwraps err into an *AcquisitionError if it is one.
func AsAcquisition(err error) (*AcquisitionError, bool) {
	var acq *AcquisitionError
	if errors.As(err, &acq) {
		return acq, true
	}
	return nil, false
}
