// Package sorter drives the per-file pipeline: walk the input tree,
// decode each file, classify it against the rule list, optionally
// redact it, and place it into the output hierarchy. Each file is an
// independent computation over its own record, so files are processed
// by a bounded worker pool with no shared mutable state beyond the
// run counters and the missing-ID ledger.
package sorter

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"dcmsort/pkg/anonymize"
	"dcmsort/pkg/logging"
	"dcmsort/pkg/paths"
	"dcmsort/pkg/rules"
)

// nonDicomExtensions are skipped without attempting a decode
var nonDicomExtensions = []string{".png", ".jpeg", ".jpg", ".gif", ".bmp"}

// Sorter runs the classification pipeline over a directory tree
type Sorter struct {
	resolver *rules.Resolver
	redactor *anonymize.Redactor
	codec    Codec
	layout   paths.Layout
	opts     Options
	logger   zerolog.Logger

	// destMu serializes destination-name selection so two workers
	// cannot reserve the same collision-free filename
	destMu sync.Mutex

	stats Stats

	// onWalk and onProgress drive progress reporting; both optional
	onWalk     func(total int)
	onProgress func()
}

// New creates a sorter. The resolver and redactor are shared read-only
// across workers for the lifetime of the run.
func New(resolver *rules.Resolver, redactor *anonymize.Redactor, codec Codec, opts Options) *Sorter {
	return &Sorter{
		resolver: resolver,
		redactor: redactor,
		codec:    codec,
		layout:   paths.Layout{},
		opts:     opts,
		logger:   logging.GetLogger("sorter"),
	}
}

// OnWalk registers a callback invoked once the input tree has been
// walked, with the number of files found
func (s *Sorter) OnWalk(fn func(total int)) {
	s.onWalk = fn
}

// OnProgress registers a callback invoked after each file is handled
func (s *Sorter) OnProgress(fn func()) {
	s.onProgress = fn
}

// Run walks the input tree and processes every file through the
// pipeline. Per-file failures are counted and logged but never abort
// the run; only a failed walk or a cancelled context returns an error.
func (s *Sorter) Run(ctx context.Context) (Summary, error) {
	files, err := s.collectFiles()
	if err != nil {
		return s.stats.Snapshot(), err
	}

	s.logger.Info().
		Int("fileCount", len(files)).
		Int("workers", s.workerCount()).
		Msg("Starting sort run")

	if s.onWalk != nil {
		s.onWalk(len(files))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount())

	for _, file := range files {
		file := file
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			s.processFile(file)
			if s.onProgress != nil {
				s.onProgress()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return s.stats.Snapshot(), err
	}
	return s.stats.Snapshot(), nil
}

// collectFiles walks the input tree and returns every regular file
func (s *Sorter) collectFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.opts.InputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (s *Sorter) workerCount() int {
	if s.opts.Workers > 0 {
		return s.opts.Workers
	}
	n := runtime.NumCPU() / 2
	if n < 2 {
		n = 2
	}
	return n
}

// processFile runs one file through decode, classify, redact, place.
// All failure modes are local: they are counted and logged, and the
// worker moves on.
func (s *Sorter) processFile(src string) {
	s.stats.Found.Add(1)

	if hasNonDicomExtension(src) {
		s.stats.Skipped.Add(1)
		return
	}

	rec, err := s.codec.Decode(src)
	if err != nil {
		s.logger.Warn().Str("file", src).Err(err).Msg("Skipping undecodable file")
		s.stats.Failed.Add(1)
		return
	}

	// Classification always sees pre-redaction values
	result := s.resolver.Resolve(rec)

	outRec := rec
	var mutation anonymize.Mutation
	if s.redactor.Active() {
		outRec, mutation = s.redactor.Redact(rec)
	}

	destDir := filepath.Join(s.opts.OutputDir, s.layout.Dir(outRec, result))
	if err := os.MkdirAll(destDir, 0755); err != nil {
		s.logger.Error().Str("dir", destDir).Err(err).Msg("Failed to create destination directory")
		s.stats.Failed.Add(1)
		return
	}

	dest, err := s.reserveDestination(destDir, filepath.Base(src))
	if err != nil {
		s.logger.Error().Str("dir", destDir).Err(err).Msg("Failed to reserve destination name")
		s.stats.Failed.Add(1)
		return
	}

	if err := s.place(src, dest, mutation); err != nil {
		s.logger.Error().Str("file", src).Str("dest", dest).Err(err).Msg("Failed to place file")
		s.stats.Failed.Add(1)
		return
	}

	if result.Matched {
		s.stats.Sorted.Add(1)
	} else {
		s.stats.Unclassified.Add(1)
	}

	s.logger.Debug().
		Str("file", src).
		Str("dest", dest).
		Bool("matched", result.Matched).
		Msg("Placed file")
}

// reserveDestination picks the destination path, appending collision
// suffixes unless overwriting was requested. The name is reserved by
// creating it exclusively so concurrent workers cannot pick the same
// one.
func (s *Sorter) reserveDestination(destDir, filename string) (string, error) {
	if s.opts.Force {
		return filepath.Join(destDir, filename), nil
	}

	s.destMu.Lock()
	defer s.destMu.Unlock()

	name := paths.UniqueName(destDir, filename)
	dest := filepath.Join(destDir, name)
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", err
	}
	_ = f.Close()
	return dest, nil
}

// place writes src to dest, applying the mutation when one exists.
// With Move set the source is removed after a successful write.
func (s *Sorter) place(src, dest string, mutation anonymize.Mutation) error {
	if len(mutation) > 0 {
		if err := s.codec.Rewrite(src, dest, mutation); err != nil {
			return err
		}
		if s.opts.Move {
			return os.Remove(src)
		}
		return nil
	}

	if s.opts.Move {
		return moveFile(src, dest)
	}
	return copyFile(src, dest)
}

func hasNonDicomExtension(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range nonDicomExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// moveFile renames when possible and falls back to copy+remove across
// filesystems
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
