package plex

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/tvfiles-io/tracker/services/reconcile"
)

// Source adapts the Plex TV catalog to the reconciler's observation stream:
// show libraries → shows → seasons → episodes → file parts.
type Source struct {
	api *Api
}

func NewSource(api *Api) *Source {
	return &Source{
		api: api,
	}
}

func (s *Source) Each(ctx context.Context, fn func(reconcile.Observation) error) error {
	sections, err := s.api.TVSections(ctx)
	if err != nil {
		return err
	}
	log.Infof("tv libraries found: %v", len(sections))
	for _, section := range sections {
		log.WithField("library", section.Title).Info("scanning library")
		shows, err := s.api.Container(ctx, "/library/sections/"+section.Key+"/all")
		if err != nil {
			return err
		}
		for _, show := range shows.Directories {
			if err := s.eachShow(ctx, show, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Source) eachShow(ctx context.Context, show Directory, fn func(reconcile.Observation) error) error {
	log.WithField("series", show.Title).Debug("scanning series")
	parent := &reconcile.Entity{
		Key: reconcile.SingleKey(show.Key),
		Attrs: reconcile.Attrs{
			Title: show.Title,
		},
	}
	// a show with no playable parts still gets registered
	if err := fn(reconcile.Observation{Parent: parent}); err != nil {
		return err
	}
	seasons, err := s.api.Container(ctx, show.Key)
	if err != nil {
		return err
	}
	for _, season := range seasons.Directories {
		episodes, err := s.api.Container(ctx, season.Key)
		if err != nil {
			return err
		}
		for _, ep := range episodes.Videos {
			child := &reconcile.Entity{
				Key: reconcile.SingleKey(ep.Key),
				Attrs: reconcile.Attrs{
					Season:  season.Index,
					Episode: ep.Index,
				},
			}
			for _, part := range ep.Parts {
				leaf := &reconcile.Entity{
					Key: reconcile.FileKey(part.File),
				}
				if err := fn(reconcile.Observation{Parent: parent, Child: child, Leaf: leaf}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
