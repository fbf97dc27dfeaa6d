// Package save reconciles the markup store against the document's
// originally embedded annotations and drives the round-trip with the
// remote converter service.
package save

import "markup-backend/domain/markup"

// Classification partitions a document's markups for one save call.
// The three slices cover every markup exactly once:
//
//   - New: drawn, pasted or placed this session (fromPdf false)
//   - Modified: embedded annotations the user altered
//   - Unmodified: embedded annotations left untouched; these are
//     excluded from the payload entirely, being already correct in the
//     document body
type Classification struct {
	New        []*markup.Markup
	Modified   []*markup.Markup
	Unmodified []*markup.Markup

	// MarkupsToSave is New followed by Modified.
	MarkupsToSave []*markup.Markup

	// AnnotationsToRemove lists the embedded annotation ids superseded
	// by a modified copy plus the ids the user explicitly deleted,
	// deduplicated.
	AnnotationsToRemove []string
}

// Classify runs the partition over a point-in-time snapshot of the
// document's markups and its recorded deletions. It is pure local
// computation and never fails.
func Classify(markups []*markup.Markup, deletedAnnotIDs []string) Classification {
	var c Classification
	seen := make(map[string]struct{})

	for _, m := range markups {
		switch {
		case !m.FromPDF:
			c.New = append(c.New, m)
		case m.Modified:
			c.Modified = append(c.Modified, m)
			if m.PDFAnnotID != "" {
				if _, dup := seen[m.PDFAnnotID]; !dup {
					seen[m.PDFAnnotID] = struct{}{}
					c.AnnotationsToRemove = append(c.AnnotationsToRemove, m.PDFAnnotID)
				}
			}
		default:
			c.Unmodified = append(c.Unmodified, m)
		}
	}

	for _, id := range deletedAnnotIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			c.AnnotationsToRemove = append(c.AnnotationsToRemove, id)
		}
	}

	c.MarkupsToSave = append(append([]*markup.Markup{}, c.New...), c.Modified...)
	return c
}

// IsNoOp reports whether the document already matches its body: nothing
// to embed and nothing to remove.
func (c Classification) IsNoOp() bool {
	return len(c.MarkupsToSave) == 0 && len(c.AnnotationsToRemove) == 0
}
