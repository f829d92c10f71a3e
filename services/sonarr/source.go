package sonarr

import (
	"context"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/tvfiles-io/tracker/services/reconcile"
)

// Source adapts the Sonarr episode file inventory to the reconciler's
// observation stream. File keys are canonical absolute paths.
type Source struct {
	api *Api
}

func NewSource(api *Api) *Source {
	return &Source{
		api: api,
	}
}

func (s *Source) Each(ctx context.Context, fn func(reconcile.Observation) error) error {
	seriesList, err := s.api.Series(ctx)
	if err != nil {
		return err
	}
	log.Infof("series found: %v", len(seriesList))
	for _, series := range seriesList {
		if err := s.eachSeries(ctx, series, fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *Source) eachSeries(ctx context.Context, series Series, fn func(reconcile.Observation) error) error {
	seriesPath := series.Path
	parent := &reconcile.Entity{
		Key: reconcile.SingleKey(strconv.FormatInt(series.ID, 10)),
		Attrs: reconcile.Attrs{
			Title: series.Title,
			Path:  &seriesPath,
		},
	}
	// a series without files on disk still gets registered
	if err := fn(reconcile.Observation{Parent: parent}); err != nil {
		return err
	}

	episodes, err := s.api.Episodes(ctx, series.ID)
	if err != nil {
		return err
	}
	byID := make(map[int64]Episode, len(episodes))
	for _, e := range episodes {
		byID[e.ID] = e
	}

	files, err := s.api.EpisodeFiles(ctx, series.ID)
	if err != nil {
		return err
	}
	log.WithField("series", series.Title).WithField("files", len(files)).Debug("scanning series")

	for _, ef := range files {
		var child *reconcile.Entity
		// multi-episode files get linked through their first episode
		if len(ef.EpisodeIDs) > 0 {
			if e, ok := byID[ef.EpisodeIDs[0]]; ok {
				child = &reconcile.Entity{
					Key: reconcile.SingleKey(strconv.FormatInt(e.ID, 10)),
					Attrs: reconcile.Attrs{
						Season:  e.SeasonNumber,
						Episode: e.EpisodeNumber,
					},
				}
			}
		}
		leaf := &reconcile.Entity{
			Key: reconcile.PathKey(ef.Path),
		}
		if err := fn(reconcile.Observation{Parent: parent, Child: child, Leaf: leaf}); err != nil {
			return err
		}
	}
	return nil
}
