// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package wizard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tailwise/tailwise/internal/petdb"
)

// AttachmentKind discriminates the attachment union.
type AttachmentKind int

const (
	// AttachmentPending wraps a locally selected file not yet uploaded.
	AttachmentPending AttachmentKind = iota
	// AttachmentPersisted references a durable object identified by URL.
	AttachmentPersisted
)

// Attachment is either a pending local file or a persisted record. Consumers
// switch on Kind; Data is set only for pending entries, URL only for
// persisted ones.
type Attachment struct {
	Kind AttachmentKind
	Name string
	Data []byte
	URL  string
}

// PendingAttachment wraps a newly selected file.
func PendingAttachment(name string, data []byte) Attachment {
	return Attachment{Kind: AttachmentPending, Name: name, Data: data}
}

// PersistedAttachment references an already uploaded file.
func PersistedAttachment(name string, url string) Attachment {
	return Attachment{Kind: AttachmentPersisted, Name: name, URL: url}
}

// Uploader stores a pending attachment durably and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// Remover deletes a durable attachment by URL.
type Remover interface {
	Remove(ctx context.Context, url string) error
}

// AddFiles appends newly chosen files to the draft as pending attachments.
// Nothing is uploaded until save.
func (d *Draft) AddFiles(files ...Attachment) {
	for _, f := range files {
		d.Attachments = append(d.Attachments, PendingAttachment(f.Name, f.Data))
	}
}

// RemoveAttachment drops the attachment at index i. Removing a pending entry
// has no storage effect; removing a persisted entry schedules its URL for
// deletion on save.
func (d *Draft) RemoveAttachment(i int) {
	if i < 0 || i >= len(d.Attachments) {
		return
	}
	a := d.Attachments[i]
	if a.Kind == AttachmentPersisted {
		d.removedURLs = append(d.removedURLs, a.URL)
	}
	d.Attachments = append(d.Attachments[:i], d.Attachments[i+1:]...)
}

// RemovedURLs returns the persisted attachments removed from the draft so
// far this run.
func (d *Draft) RemovedURLs() []string {
	return d.removedURLs
}

// ReconcileOnSave turns the draft attachment list into the final persisted
// list: pending entries are uploaded in place, persisted entries are kept
// as-is, and every entry of the original list no longer present in the draft
// (by URL) is returned for deletion. The final list equals exactly what the
// draft shows at save time; nothing is duplicated or dropped by the order of
// uploads versus deletes.
func ReconcileOnSave(ctx context.Context, up Uploader, original []petdb.VetRecord, draft []Attachment) ([]petdb.VetRecord, []string, error) {
	final := make([]petdb.VetRecord, 0, len(draft))
	kept := make(map[string]struct{}, len(draft))
	for _, a := range draft {
		switch a.Kind {
		case AttachmentPersisted:
			final = append(final, petdb.VetRecord{Filename: a.Name, URL: a.URL})
			kept[a.URL] = struct{}{}
		case AttachmentPending:
			url, err := up.Upload(ctx, a.Name, a.Data)
			if err != nil {
				return nil, nil, fmt.Errorf("wizard: uploading attachment %q: %w", a.Name, err)
			}
			final = append(final, petdb.VetRecord{Filename: a.Name, URL: url})
		default:
			return nil, nil, fmt.Errorf("wizard: unknown attachment kind %d", a.Kind)
		}
	}

	var toDelete []string
	for _, rec := range original {
		if _, ok := kept[rec.URL]; !ok {
			toDelete = append(toDelete, rec.URL)
		}
	}
	return final, toDelete, nil
}

// DeleteRemoved deletes the scheduled URLs from storage after the record
// write that dropped them has succeeded. Failures are logged only; an
// orphaned object is acceptable over data loss.
func DeleteRemoved(ctx context.Context, rm Remover, urls []string) {
	for _, url := range urls {
		if err := rm.Remove(ctx, url); err != nil {
			slog.WarnContext(ctx, "wizard: deleting removed attachment", "url", url, "error", err)
		}
	}
}
