package uploads

import "time"

// Status of one upload attempt
type Status string

const (
	StatusAccepted       Status = "accepted"
	StatusRejected       Status = "rejected"
	StatusDuplicatesOnly Status = "duplicates_only"
	StatusEmpty          Status = "empty"
	StatusFailed         Status = "failed"
)

// Batch is the audit entry written for every upload attempt
type Batch struct {
	ID            string    `json:"id"`
	EnvironmentID int64     `json:"environment_id"`
	UploadedBy    int64     `json:"uploaded_by"`
	FileName      string    `json:"file_name"`
	Status        Status    `json:"status"`
	Accepted      int       `json:"accepted"`
	Duplicates    int       `json:"duplicates"`
	ErrorCount    int       `json:"error_count"`
	Errors        []string  `json:"errors,omitempty"`
	ArchiveURL    string    `json:"archive_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
