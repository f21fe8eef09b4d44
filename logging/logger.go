// Package logging constructs the structured logger injected into every
// layer of coredb. Nothing in this module reaches for a package-level
// logger; every long-lived component takes one at construction time.
package logging

import "go.uber.org/zap"

// Logger is the subset of *zap.SugaredLogger coredb's layers depend on.
// Kept as an interface so tests can hand components a no-op logger.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	With(args ...interface{}) *zap.SugaredLogger
}

// New builds a development or production zap logger depending on env,
// mirroring the dev/prod split used throughout the retrieved pack.
func New(env string) (*zap.SugaredLogger, error) {
	var z *zap.Logger
	var err error
	if env == "production" {
		z, err = zap.NewProduction()
	} else {
		z, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return z.Sugar(), nil
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
