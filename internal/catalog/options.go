package catalog

import (
	"io"

	"github.com/sirupsen/logrus"
)

type options struct {
	logger    *logrus.Logger
	classes   []string
	profClass []string
}

// Option customizes catalog loading.
type Option func(*options)

// WithLogger sets the logger used for load summaries.
func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClassVocabulary replaces the controlled drug class vocabulary.
func WithClassVocabulary(terms []string) Option {
	return func(o *options) {
		o.classes = terms
	}
}

// WithProfClassVocabulary replaces the controlled professional class vocabulary.
func WithProfClassVocabulary(terms []string) Option {
	return func(o *options) {
		o.profClass = terms
	}
}

func buildOptions(opts []Option) *options {
	o := &options{
		classes:   DefaultClassVocabulary,
		profClass: DefaultProfClassVocabulary,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logrus.New()
		o.logger.SetOutput(io.Discard)
	}
	return o
}
