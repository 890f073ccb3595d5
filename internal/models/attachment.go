package models

// AttachmentModel tracks one stored binary object in the media library.
// ByteSize and Hash together identify content for dedup lookups; neither is
// trusted alone.
type AttachmentModel struct {
	Base
	FileName string `json:"file_name" gorm:"index;not null"`
	FileURL  string `json:"file_url"  gorm:"index;not null"`
	MimeType string `json:"mime_type"`
	ByteSize int64  `json:"byte_size" gorm:"index"`
	Hash     string `json:"hash"      gorm:"index"` // hex sha256 of content
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

func (AttachmentModel) TableName() string { return "attachments" }
