package roles

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch observa o arquivo de policy em disco e recarrega o enforcer a cada
// alteração. Sem policyPath configurado é um no-op. Bloqueia até o ctx
// encerrar; rode em uma goroutine própria.
func (s *Service) Watch(ctx context.Context) error {
	if s.policyPath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create policy watcher: %w", err)
	}
	defer watcher.Close()

	// Observa o diretório: editores costumam trocar o arquivo por rename,
	// o que mataria um watch apontado direto para o path.
	dir := filepath.Dir(s.policyPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.policyPath)
	s.logger.Info("policy watcher started", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Error("policy reload failed", "error", err)
				continue
			}
			s.logger.Info("policy reloaded", "path", target)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("policy watcher error", "error", err)
		}
	}
}
