package models

// ImageUpload is one uploaded image as received from the client.
type ImageUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}
