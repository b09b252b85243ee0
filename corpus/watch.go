package corpus

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher evicts cached phrase lists when the backing files change on
// disk, so long-running processes pick up corpus edits without a
// restart.
type Watcher struct {
	repo *Repository
	fw   *fsnotify.Watcher
	log  *zap.Logger
}

// NewWatcher starts watching the repository's directory.
func NewWatcher(repo *Repository, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("corpus watcher: %w", err)
	}
	if err := fw.Add(repo.dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("corpus watcher: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{repo: repo, fw: fw, log: log}, nil
}

// Run processes change events until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fw.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.handle(ev.Name)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("corpus watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(path string) {
	season, typ, ok := parseFileName(filepath.Base(path))
	if !ok {
		return
	}
	w.repo.invalidate(season, typ)
	w.log.Info("corpus cache invalidated",
		zap.String("season", string(season)),
		zap.String("type", string(typ)))
}

// parseFileName recovers (season, type) from a corpus file name of the
// form <season>_<type>_enhanced100.csv.
func parseFileName(name string) (Season, CommentType, bool) {
	if !strings.HasSuffix(name, "_enhanced100.csv") {
		return "", "", false
	}
	stem := strings.TrimSuffix(name, "_enhanced100.csv")
	for _, s := range Seasons {
		for _, typ := range []CommentType{TypeWeather, TypeAdvice} {
			if stem == string(s)+"_"+string(typ) {
				return s, typ, true
			}
		}
	}
	return "", "", false
}
