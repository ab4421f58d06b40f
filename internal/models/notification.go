package models

// NotificationResult reports the outcome of a demerit notice. It is returned
// alongside counter updates and never causes them to fail.
type NotificationResult struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	PreviewURL string   `json:"previewUrl,omitempty"`
	Recipients []string `json:"recipients,omitempty"`
}
