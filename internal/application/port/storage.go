package port

import "context"

// BlobStore keeps evidence file content outside the database
type BlobStore interface {
	// Put stores content under the case and returns its relative storage path
	Put(ctx context.Context, caseID int64, fileName string, content []byte) (string, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}
