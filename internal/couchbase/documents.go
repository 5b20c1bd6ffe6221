package couchbase

import (
	"errors"
	"fmt"

	"github.com/couchbase/gocb/v2"
)

// DocumentManager handles document CRUD operations against the default
// collection of the results bucket.
type DocumentManager struct {
	bucket *gocb.Bucket
}

// NewDocumentManager creates a new document manager
func NewDocumentManager(bucket *gocb.Bucket) *DocumentManager {
	return &DocumentManager{bucket: bucket}
}

// UpsertDocument stores or updates a document
func (dm *DocumentManager) UpsertDocument(docID string, data interface{}) error {
	col := dm.bucket.DefaultCollection()

	_, err := col.Upsert(docID, data, &gocb.UpsertOptions{})
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", docID, err)
	}

	return nil
}

// GetDocument retrieves a document into result
func (dm *DocumentManager) GetDocument(docID string, result interface{}) error {
	col := dm.bucket.DefaultCollection()

	resultDoc, err := col.Get(docID, &gocb.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get document %s: %w", docID, err)
	}

	if err := resultDoc.Content(result); err != nil {
		return fmt.Errorf("failed to parse document content: %w", err)
	}

	return nil
}

// DeleteDocument removes a document
func (dm *DocumentManager) DeleteDocument(docID string) error {
	col := dm.bucket.DefaultCollection()

	_, err := col.Remove(docID, &gocb.RemoveOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", docID, err)
	}

	return nil
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gocb.ErrDocumentNotFound)
}
