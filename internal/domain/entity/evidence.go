package entity

import "time"

// Evidence is a file attached to a case by one of the parties
type Evidence struct {
	ID          int64     `json:"id"`
	CaseID      int64     `json:"case_id"`
	UploaderID  int64     `json:"uploader_id"`
	FileName    string    `json:"file_name"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	StoragePath string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
