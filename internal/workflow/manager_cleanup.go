package workflow

import (
	"context"

	"reelcut/internal/fileutil"
	"reelcut/internal/fragment"
	"reelcut/internal/logging"
	"reelcut/internal/services"
)

// cleanup removes the intermediates of stem and of every fragment stem, then
// the fragment files unless they are kept. Failures are logged and never
// change the file's outcome. It returns the number of files removed.
func (m *Manager) cleanup(ctx context.Context, stem string, fragments []fragment.Fragment) int {
	logger := logging.WithContext(ctx, m.logger)
	stems := make([]string, 0, len(fragments)+1)
	stems = append(stems, stem)
	for _, f := range fragments {
		stems = append(stems, f.Stem())
	}

	removed := 0
	warn := func(err error) {
		logging.WarnWithContext(logger, "intermediate not removed", "cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldImpact, "leftover file in the work directory"),
			logging.String(logging.FieldErrorHint, "remove it manually or check directory permissions"),
		)
	}
	for _, s := range stems {
		for _, path := range m.layout.Intermediates(s) {
			ok, err := fileutil.RemoveIfExists(path)
			if err != nil {
				warn(services.Wrap(services.ErrFileSystem, "cleanup", "remove intermediate", path, err))
				continue
			}
			if ok {
				removed++
			}
		}
	}

	if len(fragments) > 0 && !m.cfg.Split.KeepFragments {
		for _, f := range fragments {
			ok, err := fileutil.RemoveIfExists(f.Path)
			if err != nil {
				warn(services.Wrap(services.ErrFileSystem, "cleanup", "remove fragment", f.Path, err))
				continue
			}
			if ok {
				removed++
			}
		}
	}

	logger.Debug("cleanup finished",
		logging.String(logging.FieldEventType, "cleanup_complete"),
		logging.Int("removed", removed),
		logging.Int("stems", len(stems)),
	)
	return removed
}
