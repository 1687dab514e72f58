package domain

// File statuses reported by the platform.
const (
	FileStatusUploaded   = "UPLOADED"
	FileStatusProcessing = "PROCESSING"
	FileStatusReady      = "READY"
	FileStatusFailed     = "FAILED"
)

// StagedUploadParameter is a form field the upload target expects verbatim.
type StagedUploadParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StagedUpload is a single-use upload slot issued by the platform.
type StagedUpload struct {
	URL         string                  `json:"url"`
	ResourceURL string                  `json:"resourceUrl"`
	Parameters  []StagedUploadParameter `json:"parameters"`
}

// FileError is a processing error reported for a file.
type FileError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// RemoteFile is a file entity managed by the platform.
type RemoteFile struct {
	ID     string      `json:"id"`
	URL    string      `json:"url,omitempty"`
	Status string      `json:"fileStatus"`
	Alt    string      `json:"alt,omitempty"`
	Errors []FileError `json:"fileErrors,omitempty"`
}
