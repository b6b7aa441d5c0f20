package repository

import "github.com/okian/bandboard/pkg/logger"

// Option applies a configuration option to the DataStore.
type Option func(*DataStore)

// WithAggregator sets the function run after each payload once the store is ready.
func WithAggregator(fn AggregateFunc) Option {
	return func(s *DataStore) {
		s.aggregate = fn
	}
}

// WithLogger sets the store's logger.
func WithLogger(l logger.Logger) Option {
	return func(s *DataStore) {
		if l != nil {
			s.logger = l
		}
	}
}
