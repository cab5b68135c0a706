package document

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// DefaultBackupSuffix is appended to the target path when backups are enabled
const DefaultBackupSuffix = ".backup"

// StoreOptions configures a Store
type StoreOptions struct {
	// Backup copies the previous content to <path><BackupSuffix> before saving
	Backup bool

	// BackupSuffix defaults to DefaultBackupSuffix
	BackupSuffix string

	// FileMode is used for new files; existing files keep their mode. 0 means 0644.
	FileMode os.FileMode
}

// Store loads and persists documents. Every load and save reads or writes the
// whole file and releases it before returning.
type Store struct {
	fs     afero.Fs
	opts   StoreOptions
	logger zerolog.Logger
}

// NewStore creates a store over the given filesystem
func NewStore(fs afero.Fs, opts StoreOptions) *Store {
	if opts.BackupSuffix == "" {
		opts.BackupSuffix = DefaultBackupSuffix
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0o644
	}
	return &Store{
		fs:     fs,
		opts:   opts,
		logger: logging.GetLogger("document.store"),
	}
}

// Load reads the file at path into a revision 0 document
func (s *Store) Load(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, errors.Wrap(err, errors.ErrCancelled, "load cancelled")
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.Wrapf(err, errors.ErrFileNotFound, "document %s not found", path).
				WithDetail("path", path)
		}
		return Document{}, errors.Wrapf(err, errors.ErrFileRead, "cannot read document %s", path).
			WithDetail("path", path)
	}

	s.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("Document loaded")
	return New(string(data)), nil
}

// Save atomically replaces the file at path with the document text: the
// content goes to a temporary file in the same directory which is synced and
// renamed over the target. A failed or cancelled save leaves the target as it was.
func (s *Store) Save(ctx context.Context, path string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCancelled, "save cancelled")
	}
	defer logging.LogDuration(time.Now(), "save "+path)

	perm := s.opts.FileMode
	if info, err := s.fs.Stat(path); err == nil {
		perm = info.Mode().Perm()
		if s.opts.Backup {
			if err := s.backup(path, perm); err != nil {
				return err
			}
		}
	}

	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot create directory %s", dir)
	}

	if err := s.writeAtomic(ctx, dir, path, doc.Text(), perm); err != nil {
		return err
	}

	s.logger.Info().
		Str("path", path).
		Int("revision", doc.Revision()).
		Int("bytes", doc.Len()).
		Msg("Document saved")
	return nil
}

// Backup reports whether Save keeps the previous content
func (s *Store) Backup() bool { return s.opts.Backup }

// BackupPath returns where Save keeps the previous content of path
func (s *Store) BackupPath(path string) string {
	return path + s.opts.BackupSuffix
}

func (s *Store) backup(path string, perm os.FileMode) error {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileRead, "cannot read %s for backup", path)
	}
	backupPath := s.BackupPath(path)
	if err := afero.WriteFile(s.fs, backupPath, data, perm); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write backup %s", backupPath)
	}
	s.logger.Debug().Str("backup", backupPath).Msg("Backup written")
	return nil
}

func (s *Store) writeAtomic(ctx context.Context, dir, dest, text string, perm os.FileMode) error {
	tmp, err := afero.TempFile(s.fs, dir, ".dopatch-*")
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot create temporary file in %s", dir)
	}
	tmpPath := tmp.Name()

	fail := func(err error, msg string) error {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpPath)
		return errors.Wrap(err, errors.ErrFileWrite, msg).WithDetail("path", dest)
	}

	bw := bufio.NewWriter(tmp)
	if _, err := bw.WriteString(text); err != nil {
		return fail(err, "cannot write temporary file")
	}
	if err := bw.Flush(); err != nil {
		return fail(err, "cannot flush temporary file")
	}
	if err := tmp.Sync(); err != nil {
		return fail(err, "cannot sync temporary file")
	}
	// Last point where cancellation still leaves the target untouched.
	if err := ctx.Err(); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpPath)
		return errors.Wrap(err, errors.ErrCancelled, "save cancelled")
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpPath)
		return errors.Wrap(err, errors.ErrFileWrite, "cannot close temporary file")
	}
	_ = s.fs.Chmod(tmpPath, perm)

	if err := s.fs.Rename(tmpPath, dest); err != nil {
		_ = s.fs.Remove(tmpPath)
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot replace %s", dest)
	}

	if _, ok := s.fs.(*afero.OsFs); ok {
		_ = syncDir(dir)
	}
	return nil
}

// syncDir best-effort fsyncs the parent directory to persist the rename
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
