package pdfbatch

import (
	"github.com/rs/zerolog"

	"github.com/tsawler/pdfbatch/config"
)

// options holds the configuration of a Batch.
type options struct {
	cfg    config.Config
	logger *zerolog.Logger // nil means build one from cfg.Log
}

// defaultOptions returns the default batch options.
func defaultOptions() options {
	return options{
		cfg:    *config.Default(),
		logger: nil,
	}
}

// clone creates a deep copy of options.
func (o options) clone() options {
	newOpts := options{
		cfg:    o.cfg,
		logger: o.logger,
	}

	// Deep copy formats slice
	if o.cfg.Tables.Formats != nil {
		newOpts.cfg.Tables.Formats = make([]string, len(o.cfg.Tables.Formats))
		copy(newOpts.cfg.Tables.Formats, o.cfg.Tables.Formats)
	}

	return newOpts
}
