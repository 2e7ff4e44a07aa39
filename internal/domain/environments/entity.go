package environments

import "time"

// Environment is a named survey site owning a set of scan records
type Environment struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
