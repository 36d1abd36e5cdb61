package mocks

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MockAttachmentStore implements service.AttachmentStore for testing.
// The default behavior fabricates a deterministic-looking locator per call.
type MockAttachmentStore struct {
	// StoreFn overrides the default behavior when set.
	StoreFn func(ctx context.Context, body io.Reader, fileName, contentType string) (string, error)

	mu         sync.Mutex
	StoreCalls int
	FileNames  []string
}

// NewMockAttachmentStore creates a new mock attachment store.
func NewMockAttachmentStore() *MockAttachmentStore {
	return &MockAttachmentStore{}
}

// Store implements the AttachmentStore interface
func (m *MockAttachmentStore) Store(ctx context.Context, body io.Reader, fileName, contentType string) (string, error) {
	m.mu.Lock()
	m.StoreCalls++
	m.FileNames = append(m.FileNames, fileName)
	calls := m.StoreCalls
	m.mu.Unlock()

	if m.StoreFn != nil {
		return m.StoreFn(ctx, body, fileName, contentType)
	}

	return fmt.Sprintf("https://bucket.s3.test.amazonaws.com/attachments/%d/%s", calls, fileName), nil
}
