package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"bizcore/internal/blob"
	"bizcore/internal/diaglog"
	"bizcore/pkg/apperr"
	"bizcore/pkg/datauri"
)

const componentDocuments = "documents"

// DocumentInput carries caller-supplied fields for document creation.
// Content must be a well-formed base64 data URI; MimeType and SizeBytes are
// always derived from it, never taken from the caller.
type DocumentInput struct {
	Filename string
	Category DocumentCategory
	Content  string
	Notes    *string
}

// DocumentPatch carries partial metadata fields for document update.
// Content is immutable after creation and deliberately absent here.
type DocumentPatch struct {
	Filename *string
	Category *DocumentCategory
	Notes    **string
}

// ListDocuments returns every document in insertion order.
func (s *Service) ListDocuments() []DocumentItem { return s.store.ListDocuments() }

// GetDocument returns the document with the given id; the boolean is false
// when absent.
func (s *Service) GetDocument(id string) (DocumentItem, bool) { return s.store.GetDocument(id) }

// DocumentsByCategory returns documents with the given classification.
func (s *Service) DocumentsByCategory(cat DocumentCategory) []DocumentItem {
	var out []DocumentItem
	for _, d := range s.store.ListDocuments() {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

// SearchDocuments performs case-insensitive substring matching over
// filename and notes. An empty query matches everything.
func (s *Service) SearchDocuments(query string) []DocumentItem {
	if blank(query) {
		return s.store.ListDocuments()
	}
	var out []DocumentItem
	for _, d := range s.store.ListDocuments() {
		if containsFold(d.Filename, query) || (d.Notes != nil && containsFold(*d.Notes, query)) {
			out = append(out, d)
		}
	}
	return out
}

// CreateDocument validates input, derives the MIME type and byte size from
// the data-URI content, and persists a new document.
func (s *Service) CreateDocument(ctx context.Context, input DocumentInput) (DocumentItem, error) {
	ctx, finish := s.begin(ctx, "documents.create")
	var created DocumentItem
	err := func() error {
		if blank(input.Filename) {
			return apperr.NewRequired("filename")
		}
		if input.Category == "" {
			return apperr.NewRequired("category")
		}
		if !input.Category.Valid() {
			return apperr.NewValidation("category", fmt.Sprintf("unknown document category %q", input.Category))
		}
		if blank(input.Content) {
			return apperr.NewRequired("content")
		}
		uri, err := datauri.Parse(input.Content)
		if err != nil {
			return apperr.NewValidation("content", "content must be a base64 data URI").WithDetail("cause", err.Error())
		}
		doc := DocumentItem{
			Filename:  input.Filename,
			MimeType:  uri.MimeType,
			SizeBytes: uri.Size(),
			Category:  input.Category,
			Content:   input.Content,
			Notes:     input.Notes,
		}
		return s.commit(ctx, "documents.create", func(tx Transaction) error {
			created = tx.SaveDocument(doc)
			return nil
		})
	}()
	finish(err)
	if err != nil {
		return DocumentItem{}, err
	}
	s.log.TrackDataOperation(componentDocuments, "create", string(EntityDocument), created.ID)
	return created, nil
}

// UpdateDocument merges metadata patch fields over the stored document.
// Content cannot be modified; replace the document to change it.
func (s *Service) UpdateDocument(ctx context.Context, id string, patch DocumentPatch) (DocumentItem, error) {
	ctx, finish := s.begin(ctx, "documents.update")
	var updated DocumentItem
	err := s.commit(ctx, "documents.update", func(tx Transaction) error {
		existing, ok := tx.FindDocument(id)
		if !ok {
			return apperr.NewNotFound(string(EntityDocument), id)
		}
		merged := existing
		if patch.Filename != nil {
			if blank(*patch.Filename) {
				return apperr.NewRequired("filename")
			}
			merged.Filename = *patch.Filename
		}
		if patch.Category != nil {
			if !patch.Category.Valid() {
				return apperr.NewValidation("category", fmt.Sprintf("unknown document category %q", *patch.Category))
			}
			merged.Category = *patch.Category
		}
		if patch.Notes != nil {
			merged.Notes = *patch.Notes
		}
		tx.UpdateDocument(merged)
		updated, _ = tx.FindDocument(id)
		return nil
	})
	finish(err)
	if err != nil {
		return DocumentItem{}, err
	}
	s.log.TrackDataOperation(componentDocuments, "update", string(EntityDocument), id)
	return updated, nil
}

// DeleteDocument removes the document and, when its content was archived,
// best-effort deletes the backing blob. The deleted filename is logged for
// audit readability.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	ctx, finish := s.begin(ctx, "documents.delete")
	var filename string
	var ref *string
	err := s.commit(ctx, "documents.delete", func(tx Transaction) error {
		existing, ok := tx.FindDocument(id)
		if !ok {
			return apperr.NewNotFound(string(EntityDocument), id)
		}
		filename = existing.Filename
		ref = existing.ContentRef
		tx.RemoveDocument(id)
		return nil
	})
	finish(err)
	if err != nil {
		return err
	}
	if ref != nil && s.blobs != nil {
		if _, err := s.blobs.Delete(ctx, *ref); err != nil {
			s.log.Warn(componentDocuments, "delete", fmt.Sprintf("orphaned blob %s: %v", *ref, err))
		}
	}
	s.log.Info(componentDocuments, "delete", fmt.Sprintf("deleted document %q", filename),
		diaglog.DataOperation("delete", string(EntityDocument), id))
	return nil
}

// ArchiveDocumentContent moves the document's inline data-URI content into
// the configured blob store and records the blob key on the document. The
// operation is idempotent: an already-archived document is returned as-is.
func (s *Service) ArchiveDocumentContent(ctx context.Context, id string) (DocumentItem, error) {
	ctx, finish := s.begin(ctx, "documents.archive")
	var archived DocumentItem
	err := func() error {
		if s.blobs == nil {
			return apperr.New(apperr.CodeOperationNotAllowed, "no blob store configured")
		}
		doc, ok := s.store.GetDocument(id)
		if !ok {
			return apperr.NewNotFound(string(EntityDocument), id)
		}
		if doc.ContentRef != nil {
			archived = doc
			return nil
		}
		uri, err := datauri.Parse(doc.Content)
		if err != nil {
			return apperr.New(apperr.CodeCorrupt, fmt.Sprintf("document %s content is not a valid data URI", id)).
				WithDetail("cause", err.Error())
		}
		key := documentBlobKey(doc)
		if _, err := s.blobs.Put(ctx, key, bytes.NewReader(uri.Data), blob.PutOptions{ContentType: uri.MimeType}); err != nil {
			return apperr.NewStorage("documents.archive", err)
		}
		return s.commit(ctx, "documents.archive", func(tx Transaction) error {
			current, ok := tx.FindDocument(id)
			if !ok {
				return apperr.NewNotFound(string(EntityDocument), id)
			}
			current.ContentRef = &key
			tx.UpdateDocument(current)
			archived, _ = tx.FindDocument(id)
			return nil
		})
	}()
	finish(err)
	if err != nil {
		return DocumentItem{}, err
	}
	s.log.TrackDataOperation(componentDocuments, "archive", string(EntityDocument), id)
	return archived, nil
}

// OpenDocumentContent returns a reader over the document's raw bytes,
// regardless of whether the content is inline or archived. The caller owns
// closing the reader.
func (s *Service) OpenDocumentContent(ctx context.Context, id string) (io.ReadCloser, error) {
	ctx, finish := s.begin(ctx, "documents.open")
	rc, err := func() (io.ReadCloser, error) {
		doc, ok := s.store.GetDocument(id)
		if !ok {
			return nil, apperr.NewNotFound(string(EntityDocument), id)
		}
		if doc.ContentRef != nil {
			if s.blobs == nil {
				return nil, apperr.New(apperr.CodeOperationNotAllowed, "no blob store configured")
			}
			_, rc, err := s.blobs.Get(ctx, *doc.ContentRef)
			if err != nil {
				return nil, apperr.NewStorage("documents.open", err)
			}
			return rc, nil
		}
		uri, err := datauri.Parse(doc.Content)
		if err != nil {
			return nil, apperr.New(apperr.CodeCorrupt, fmt.Sprintf("document %s content is not a valid data URI", id)).
				WithDetail("cause", err.Error())
		}
		return io.NopCloser(bytes.NewReader(uri.Data)), nil
	}()
	finish(err)
	return rc, err
}

func documentBlobKey(doc DocumentItem) string {
	return path.Join("documents", doc.ID)
}
