package model

// ItemManifest describes one item of an accepted batch payload. Extraction of
// images from archive/PDF/TIFF containers happens upstream; by the time a
// manifest reaches this service every entry references an already extracted
// image.
type ItemManifest struct {
	Name       string `json:"name"`
	PayloadRef string `json:"payload_ref"`
	MimeType   string `json:"mime_type"`
}

// SubmitBatchRequest is the body of POST /api/v1/batches.
type SubmitBatchRequest struct {
	ClientID string           `json:"client_id"`
	Items    []ItemManifest   `json:"items"`
	Options  SchedulerOptions `json:"options"`
}
