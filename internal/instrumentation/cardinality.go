package instrumentation

// Cardinality management helpers for metrics.
// Label values that come from clients are folded into a small fixed set
// before they reach an instrument.

// Mime types the realtime bridge understands.
const (
	MimeTextPlain = "text/plain"
	MimeAudioPCM  = "audio/pcm"
	mimeOther     = "other"
)

// MimeTypeLabel maps a client supplied mime type to a bounded label value.
//
//	MimeTypeLabel("text/plain")    // "text/plain"
//	MimeTypeLabel("image/png")     // "other"
func MimeTypeLabel(mimeType string) string {
	switch mimeType {
	case MimeTextPlain, MimeAudioPCM:
		return mimeType
	default:
		return mimeOther
	}
}

// NormalizeStatus maps a status string to one of the known status labels.
func NormalizeStatus(status string) string {
	switch status {
	case StatusSuccess, StatusError, StatusNotFound:
		return status
	default:
		return StatusUnknown
	}
}

// Gmail API operation names used for metrics and span names.
const (
	OperationMessagesList = "messages.list"
	OperationMessagesGet  = "messages.get"
	OperationLabelsList   = "labels.list"
	OperationLabelsGet    = "labels.get"
)
