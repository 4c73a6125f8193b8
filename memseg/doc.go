// Package memseg provides an in-memory immutable segment for segbloom.
//
// Documents are added through a Builder; Build freezes them into per-term
// posting bitmaps (roaring) and a live-documents bitmap. Deleting a document
// only clears its live bit: like on-disk segments, its keys remain in the
// postings until the segment is rewritten.
//
//	b := memseg.NewBuilder()
//	b.Add(memseg.Doc{"sku": {"A1"}, "color": {"red", "blue"}})
//	seg := b.Build()
//	defer seg.Close()
package memseg
