package dto

// UploadAssetResponse reports the public URL of a replaced asset
type UploadAssetResponse struct {
	Message string `json:"message"`
	Slot    string `json:"slot"`
	URL     string `json:"url"`
}
