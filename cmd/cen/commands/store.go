package commands

import (
	"github.com/nerica/cen/am"
	"github.com/nerica/cen/ce"
	"github.com/nerica/cen/errors"
	"github.com/nerica/cen/journal"
	"github.com/nerica/cen/logger"
	"github.com/nerica/cen/models"
)

// openStore builds a store the way every command sees it: core
// vocabulary first, then the configured model directory, then a replay
// of the sentence journal when one is configured. The returned journal
// is nil when journaling is disabled; callers own closing it.
func openStore(config *am.Config) (*ce.Store, *journal.Journal, error) {
	store := ce.NewStore(am.DefaultStoreName)
	store.LoadModel(models.Core, "core")

	if config.Models.Autoload && config.Models.Dir != "" {
		sentences, err := models.Load(config.Models.Dir)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to load models from %s", config.Models.Dir)
		}
		store.LoadModel(sentences, "model:"+config.Models.Dir)
	}

	if config.Database.Path == "" {
		return store, nil, nil
	}

	j, err := journal.Open(config.Database.Path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open journal at %s", config.Database.Path)
	}
	replayed, err := j.Replay(store)
	if err != nil {
		j.Close()
		return nil, nil, errors.Wrap(err, "failed to replay journal")
	}
	if replayed > 0 {
		logger.Debugf("Replayed %d journaled sentences", replayed)
	}
	return store, j, nil
}
