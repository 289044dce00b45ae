package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/export"
	"financas/internal/storage"
)

// EntrySource is the slice of the repository the export worker reads from.
type EntrySource interface {
	GetByID(ctx context.Context, id uuid.UUID) (core.LedgerEntry, error)
	PendingExports(ctx context.Context, limit int) ([]storage.PendingExportEntry, error)
	MarkExported(ctx context.Context, id uuid.UUID) error
	MarkExportError(ctx context.Context, id uuid.UUID) error
}

// ExportWorker mirrors ledger entries to the configured export target. AMQP
// messages drive the common path; the periodic pending sweep recovers entries
// whose messages were lost, including occurrences created by the horizon job,
// which never publishes.
type ExportWorker struct {
	source    EntrySource
	exporter  export.Exporter
	batchSize int
}

func NewExportWorker(source EntrySource, exporter export.Exporter, batchSize int) *ExportWorker {
	return &ExportWorker{
		source:    source,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleEntryEvent processes one AMQP entry event. Returning an error nacks
// the message back onto the queue.
func (w *ExportWorker) HandleEntryEvent(ctx context.Context, msg *amqp.EntryEventMessage) error {
	switch msg.Action {
	case amqp.ActionDelete:
		if err := w.exporter.DeleteEntry(ctx, msg.ID); err != nil {
			return fmt.Errorf("delete mirrored entry: %w", err)
		}
		slog.InfoContext(ctx, "Removed entry from export target", "id", msg.ID)
		return nil

	case amqp.ActionSync:
		entry, err := w.source.GetByID(ctx, msg.ID)
		if errors.Is(err, core.ErrNotFound) {
			// Deleted between publish and consume. The delete event handles
			// the mirror; nothing to sync.
			slog.InfoContext(ctx, "Entry gone before export, skipping", "id", msg.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load entry: %w", err)
		}
		return w.exportEntry(ctx, entry)

	default:
		slog.WarnContext(ctx, "Dropping entry event with unknown action",
			"id", msg.ID, "action", msg.Action)
		return nil
	}
}

// ProcessPending exports a batch of entries the message path missed.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.source.PendingExports(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending exports: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, p := range pending {
		entry, err := w.source.GetByID(ctx, p.ID)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load pending entry", "id", p.ID, "error", err)
			continue
		}
		if err := w.exportEntry(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to export entry", "id", p.ID, "error", err)
		}
	}

	return nil
}

// StartupCheck drains the backlog accumulated while the worker was down.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.source.PendingExports(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending exports for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		entry, err := w.source.GetByID(ctx, p.ID)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load entry for startup export",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		if err := w.exportEntry(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to export entry during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup export check completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)

	return nil
}

func (w *ExportWorker) exportEntry(ctx context.Context, entry core.LedgerEntry) error {
	if err := w.exporter.UpsertEntry(ctx, entry); err != nil {
		if markErr := w.source.MarkExportError(ctx, entry.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", entry.ID, "error", markErr)
		}
		return fmt.Errorf("upsert mirrored entry: %w", err)
	}

	if err := w.source.MarkExported(ctx, entry.ID); err != nil {
		// The mirror write went through; leaving the entry pending only
		// costs a redundant upsert on the next sweep.
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", entry.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported entry",
		"id", entry.ID,
		"date", entry.Date.String(),
		"description", entry.Description)

	return nil
}
