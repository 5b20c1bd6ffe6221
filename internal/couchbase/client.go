package couchbase

// Client represents a Couchbase client that orchestrates all operations
// against the results bucket.
type Client struct {
	connManager *ConnectionManager
	docManager  *DocumentManager
}

// NewClient creates a new Couchbase client
func NewClient(url, username, password string) (*Client, error) {
	connManager, err := NewConnectionManager(url, username, password)
	if err != nil {
		return nil, err
	}

	return &Client{
		connManager: connManager,
		docManager:  NewDocumentManager(connManager.GetBucket()),
	}, nil
}

// Close closes the Couchbase connection
func (c *Client) Close() error {
	return c.connManager.Close()
}

// NewRunLocker returns a locker scoped to the given run identifier
func (c *Client) NewRunLocker(runID string) *RunLocker {
	return NewRunLocker(c.connManager.GetBucket(), runID)
}

// UpsertDocument stores or updates a document
func (c *Client) UpsertDocument(docID string, data interface{}) error {
	return c.docManager.UpsertDocument(docID, data)
}

// GetDocument retrieves a document
func (c *Client) GetDocument(docID string, result interface{}) error {
	return c.docManager.GetDocument(docID, result)
}

// DeleteDocument removes a document
func (c *Client) DeleteDocument(docID string) error {
	return c.docManager.DeleteDocument(docID)
}
