package catalog

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/inclusiveworks/inlint/internal/logger"
	"go.uber.org/zap"
)

// Watch reloads the catalog whenever the external rules file changes and
// hands the fresh catalog to the callback. A broken edit keeps the previous
// catalog in place. The returned stop function releases the watcher.
func Watch(opts Options, log *logger.Logger, callback func(*Catalog)) (func() error, error) {
	if opts.RulesFile == "" {
		return func() error { return nil }, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors commonly replace the file on save,
	// which drops a watch on the file itself.
	dir := filepath.Dir(opts.RulesFile)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Clean(opts.RulesFile)

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				cat, err := Load(opts, log)
				if err != nil {
					log.Warn("Rules file changed but failed to load, keeping previous catalog",
						zap.String("file", opts.RulesFile),
						zap.Error(err),
					)
					continue
				}

				log.Info("Rules file reloaded",
					zap.String("file", opts.RulesFile),
					zap.String("version", cat.Version()),
				)
				callback(cat)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("Rules file watcher error", zap.Error(err))
			}
		}
	}()

	return watcher.Close, nil
}
