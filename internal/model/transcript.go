package model

import "time"

// TranscriptStatus tracks a transcript through the extraction lifecycle.
type TranscriptStatus string

const (
	TranscriptStatusUploaded   TranscriptStatus = "uploaded"
	TranscriptStatusExtracting TranscriptStatus = "extracting"
	TranscriptStatusExtracted  TranscriptStatus = "extracted"
	TranscriptStatusFailed     TranscriptStatus = "failed"
)

// UploadMethod records how a transcript entered the system.
const (
	UploadMethodUpload   = "upload"
	UploadMethodWhatsApp = "whatsapp"
	UploadMethodImport   = "import"
)

// Transcript is the raw text of a buyer discovery call.
type Transcript struct {
	ID           string           `json:"id"`
	RawText      string           `json:"raw_text"`
	UploadMethod string           `json:"upload_method"`
	Status       TranscriptStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
}
