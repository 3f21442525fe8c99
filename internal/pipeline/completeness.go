package pipeline

import (
	"context"

	"pitlane/internal/sessions"
	"pitlane/internal/store"
)

func (o *Orchestrator) eventComplete(ctx context.Context, eventID int64, quality string) (bool, error) {
	graph, err := o.store.EventGraphByID(ctx, eventID)
	if err != nil {
		return false, err
	}
	return CompleteAt(graph, quality), nil
}

// CompleteAt reports whether graph holds a full weekend at quality: the
// stored sessions cover the categories their format requires, and every
// required session has at least one link at quality.
func CompleteAt(graph *store.EventGraph, quality string) bool {
	if graph == nil {
		return false
	}
	names := make([]string, 0, len(graph.Sessions))
	linked := make(map[sessions.Category]bool, len(graph.Sessions))
	for _, s := range graph.Sessions {
		names = append(names, s.Name)
		category, ok := sessions.Classify(s.Name)
		if !ok {
			continue
		}
		for _, link := range s.Links {
			if link.Quality == quality {
				linked[category] = true
				break
			}
		}
	}
	if !sessions.HasRequired(names) {
		return false
	}
	for _, category := range sessions.RequiredFor(sessions.FormatOf(names)) {
		if !linked[category] {
			return false
		}
	}
	return true
}
