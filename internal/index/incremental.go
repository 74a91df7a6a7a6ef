package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jward/gildash/internal/discover"
	"github.com/jward/gildash/internal/extract"
	"github.com/jward/gildash/internal/gderr"
	"github.com/jward/gildash/internal/model"
	"github.com/jward/gildash/internal/resolve"
	"github.com/jward/gildash/internal/store"
	"github.com/jward/gildash/internal/watch"
)

// Incremental implements §4.6's incremental(changes): the same two-pass
// structure as FullIndex, run inside a single transaction so a mid-batch
// failure leaves the store unchanged. It satisfies watch.Coordinator so a
// Loop can dispatch debounced batches directly here.
func (c *Coordinator) Incremental(ctx context.Context, changes []watch.Change) error {
	boundaries, err := discover.BuildBoundaries(c.config.ProjectRoot, discover.Options{
		Extensions: c.config.Extensions, IgnorePatterns: c.config.IgnorePatterns,
	})
	if err != nil {
		return gderr.New(gderr.IO, "build boundaries", err)
	}

	var result Result
	err = c.store.Transaction(func(tx *store.Tx) error {
		var parked []*parsedFile

		for _, ch := range changes {
			relPath, err := filepath.Rel(c.config.ProjectRoot, ch.Path)
			if err != nil {
				relPath = ch.Path
			}
			project := boundaries.ProjectFor(relPath)

			if ch.Kind == watch.ChangeDelete {
				if err := c.store.Files().Delete(tx, project, relPath); err != nil {
					return err
				}
				c.cache.remove(project, relPath)
				result.Deleted = append(result.Deleted, resolve.Key(project, relPath))
				continue
			}

			content, err := os.ReadFile(ch.Path)
			if err != nil {
				result.Failures = append(result.Failures, Failure{
					Project: project, Path: relPath,
					Err: gderr.New(gderr.IO, "read "+relPath, err),
				})
				continue
			}
			lang, ok := extract.LanguageForFile(relPath)
			if !ok {
				continue
			}
			ast, err := extract.Parse(ctx, content, lang)
			if err != nil {
				result.Failures = append(result.Failures, Failure{
					Project: project, Path: relPath,
					Err: gderr.New(gderr.Parse, "parse "+relPath, err),
				})
				continue
			}
			info, statErr := os.Stat(ch.Path)
			var mtimeMillis, size int64
			if statErr == nil {
				mtimeMillis = info.ModTime().UnixMilli()
				size = info.Size()
			}
			lineCount := countLines(content)
			pf := &parsedFile{
				project: project, path: relPath, absPath: ch.Path,
				contentHash: hashContent(content), ast: ast,
				lineCount: lineCount, size: size, mtimeMillis: mtimeMillis,
			}
			if err := c.store.Files().Upsert(tx, model.File{
				Project: project, Path: relPath, MTimeMillis: mtimeMillis,
				Size: size, ContentHash: pf.contentHash, UpdatedAt: time.Now(), LineCount: &lineCount,
			}); err != nil {
				return err
			}
			parked = append(parked, pf)
			key := resolve.Key(project, relPath)
			result.Changed = append(result.Changed, key)
		}

		knownFiles, err := c.buildKnownFiles(tx, uniqueProjects(parked))
		if err != nil {
			return err
		}

		for _, pf := range parked {
			if err := c.indexOne(tx, pf, knownFiles, boundaries); err != nil {
				return fmt.Errorf("incremental index %s/%s: %w", pf.project, pf.path, err)
			}
			c.cache.put(pf.project, pf.path, pf.ast)
		}
		return nil
	})
	if err != nil {
		return gderr.New(gderr.StoreBusy, "incremental index", err)
	}

	if c.OnIndexed != nil {
		c.OnIndexed(result)
	}
	return nil
}
