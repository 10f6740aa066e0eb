package server

import (
	"context"
	"fmt"

	"jobgen/internal/observability"
	"jobgen/internal/prompt"
	"jobgen/internal/watcher"
)

// loadPrompts builds the prompt templates from the configuration and makes
// them active.
func (s *Server) loadPrompts() error {
	templates, sources, err := s.AppConfig.LoadPrompts()
	if err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}
	builder, err := prompt.NewBuilder(templates)
	if err != nil {
		return fmt.Errorf("invalid prompt template: %w", err)
	}
	s.Prompts.Set(builder)

	custom := 0
	for _, src := range sources {
		if src.Source != "default" {
			custom++
		}
	}
	s.Logger.Debug("Prompt templates loaded", "custom_prompts", custom)
	return nil
}

// startPromptWatcher reloads the prompt templates when a configured prompt
// file changes.
func (s *Server) startPromptWatcher(om *observability.ObservabilityManager) error {
	files := s.AppConfig.PromptFiles()
	if !s.AppConfig.App.WatchPrompts || len(files) == 0 {
		return nil
	}

	metrics := om.GetMetrics()
	fw, err := watcher.New("prompts", files, s.AppConfig.App.PromptReloadDelay, func() {
		s.reloadPrompts(metrics)
	}, s.Logger)
	if err != nil {
		return err
	}
	if err := fw.Start(); err != nil {
		return fmt.Errorf("failed to start prompt watcher: %w", err)
	}
	s.promptWatcher = fw
	return nil
}

// reloadPrompts swaps in freshly loaded templates. A broken file keeps the
// previous templates active.
func (s *Server) reloadPrompts(metrics *observability.Metrics) {
	if err := s.loadPrompts(); err != nil {
		metrics.RecordReload(context.Background(), "prompts", false)
		s.Logger.LogError(err, "Failed to reload prompt templates, keeping previous templates")
		return
	}
	metrics.RecordReload(context.Background(), "prompts", true)
	s.Logger.Info("Prompt templates reloaded")
}

func (s *Server) stopPromptWatcher() error {
	if s.promptWatcher == nil {
		return nil
	}
	return s.promptWatcher.Stop()
}
