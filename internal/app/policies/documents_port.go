package policies

import (
	"context"

	"rigrent/internal/app/dto"
)

// DocumentStore is the blob store for generated documents.
type DocumentStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	PublicURL(path string) string
	Delete(ctx context.Context, paths ...string) error
}

// InvoiceRenderer turns invoice fields into a document. It must print the
// amounts it is given and never compute its own.
type InvoiceRenderer interface {
	Render(ctx context.Context, invoice dto.Invoice) (data []byte, contentType string, err error)
	Extension() string
}
