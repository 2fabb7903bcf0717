package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"shepherd/internal/adapters/files"
	"shepherd/internal/domain/checkin"
)

// FileStore is the file collaborator content orchestrators write through.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader, folder string) (files.Saved, error)
	Delete(ctx context.Context, p string) error
}

// Upload is a file supplied alongside a content write.
type Upload struct {
	Name string
	Body io.Reader
}

// invalid tags a domain validation failure so the boundary answers 400.
func invalid(err error) error {
	if err == nil || checkin.CodeOf(err) != "" {
		return err
	}
	return checkin.Wrap(checkin.CodeValidation, err.Error(), err)
}

// lookupFailed tags a missing record as NOT_FOUND and leaves other
// store failures uncoded.
func lookupFailed(err, sentinel error, what string) error {
	if errors.Is(err, sentinel) {
		return checkin.Wrap(checkin.CodeNotFound, what+" not found", err)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// conflictOr tags err as CONFLICT when it matches one of sentinels.
func conflictOr(err error, sentinels ...error) error {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return checkin.Wrap(checkin.CodeConflict, s.Error(), err)
		}
	}
	return err
}

// storeUpload saves up under folder. A nil upload stores nothing.
// POST: on error nothing was written
func storeUpload(ctx context.Context, fs FileStore, up *Upload, folder string) (files.Saved, error) {
	if up == nil {
		return files.Saved{}, nil
	}
	if fs == nil {
		return files.Saved{}, checkin.NewError(checkin.CodeStorageFailure, "file uploads are not configured")
	}
	saved, err := fs.Save(ctx, up.Name, up.Body, folder)
	switch {
	case errors.Is(err, files.ErrUnsupportedType), errors.Is(err, files.ErrTooLarge):
		return files.Saved{}, checkin.Wrap(checkin.CodeValidation, err.Error(), err)
	case err != nil:
		slog.Error("file_event", "event", "file_save_failed", "folder", folder, "error", err)
		return files.Saved{}, checkin.Wrap(checkin.CodeStorageFailure, "could not store the uploaded file", err)
	}
	slog.Info("file_event", "event", "file_saved", "path", saved.Path)
	return saved, nil
}

// discardFile removes a stored file. Failures are logged, never returned.
func discardFile(ctx context.Context, fs FileStore, p string) {
	if p == "" || fs == nil {
		return
	}
	if err := fs.Delete(ctx, p); err != nil {
		slog.Warn("file_event", "event", "file_delete_failed", "path", p, "error", err)
		return
	}
	slog.Info("file_event", "event", "file_deleted", "path", p)
}
