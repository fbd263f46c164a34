package photos

import "time"

// Photo es una foto tomada durante un paseo, ya subida al storage.
type Photo struct {
	ID         string
	WalkID     string
	PetID      string
	UploadedBy string
	URL        string
	CreatedAt  time.Time
}
