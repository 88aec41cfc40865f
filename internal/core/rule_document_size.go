package core

import (
	"context"
	"fmt"

	"bizcore/pkg/domain"
)

// DocumentSizeNoticeBytes is the inline-content size past which the document
// size rule records an advisory entry suggesting blob archival.
const DocumentSizeNoticeBytes = 2 << 20

// NewDocumentSizeRule returns the advisory rule flagging documents whose
// inline content is large enough that it should live in the blob store.
func NewDocumentSizeRule() domain.Rule {
	return documentSizeRule{limit: DocumentSizeNoticeBytes}
}

type documentSizeRule struct {
	limit int64
}

func (documentSizeRule) Name() string { return "document_size" }

func (r documentSizeRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, doc := range view.ListDocuments() {
		if doc.ContentRef != nil || doc.SizeBytes <= r.limit {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "document_size",
			Severity: domain.SeverityLog,
			Message: fmt.Sprintf("document %q holds %d bytes inline; consider archiving its content",
				doc.Filename, doc.SizeBytes),
			Entity:   domain.EntityDocument,
			EntityID: doc.ID,
		})
	}
	return res, nil
}
