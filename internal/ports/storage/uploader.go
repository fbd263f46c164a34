package storage

import "context"

// Uploader sube bytes a un object storage y devuelve la URL pública.
type Uploader interface {
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
}
