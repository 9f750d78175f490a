package watcher

import (
	"os"

	"go.uber.org/zap"

	"github.com/hyperjump/mazad/internal/expand"
)

// NewDictionaryWatcher watches a dictionary file and reloads it into the
// expander after each change. A file that fails to parse leaves the current
// dictionaries in place.
func NewDictionaryWatcher(path string, e *expand.Expander, symmetric bool, opts ...WatcherOption) *Watcher {
	w := NewWatcher([]string{path}, nil, opts...)
	w.onChange = func(changed string) {
		// Truncated mid-save.
		if info, err := os.Stat(changed); err == nil && info.Size() == 0 {
			return
		}
		if err := e.ReloadFile(changed, symmetric); err != nil {
			w.logger.Warn("dictionary reload failed, keeping previous dictionaries",
				zap.String("path", changed), zap.Error(err))
			return
		}
		w.logger.Info("dictionary reloaded", zap.String("path", changed))
	}
	return w
}
