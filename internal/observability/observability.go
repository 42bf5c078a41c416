package observability

import (
	"context"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fixture-insight/internal/config"
	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
)

// Providers holds whichever of tracing, continuous profiling and the pprof
// listener the config enabled.
type Providers struct {
	logger   *logging.Logger
	stoppers []stopper
}

type stopper struct {
	name string
	stop func(context.Context) error
}

// Start brings up every enabled provider. A failure stops what already started.
func Start(cfg config.Config, logger *logging.Logger) (*Providers, error) {
	if logger == nil {
		logger = logging.Default()
	}
	p := &Providers{logger: logger.Named("observability")}

	if stop := startUptrace(cfg, p.logger); stop != nil {
		p.stoppers = append(p.stoppers, stopper{name: "uptrace", stop: stop})
	}

	stopProfiler, err := startPyroscope(cfg, p.logger)
	if err != nil {
		_ = p.Shutdown(context.Background())
		return nil, err
	}
	if stopProfiler != nil {
		p.stoppers = append(p.stoppers, stopper{name: "pyroscope", stop: func(context.Context) error { return stopProfiler() }})
	}

	if srv := startPprof(cfg, p.logger); srv != nil {
		p.stoppers = append(p.stoppers, stopper{name: "pprof", stop: srv.Shutdown})
	}

	return p, nil
}

// Shutdown stops providers in reverse start order and joins their errors.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs error
	for i := len(p.stoppers) - 1; i >= 0; i-- {
		s := p.stoppers[i]
		if err := s.stop(ctx); err != nil {
			errs = crerr.CombineErrors(errs, crerr.Wrapf(err, "stop %s", s.name))
			continue
		}
		p.logger.Info("provider stopped", "provider", s.name)
	}
	p.stoppers = nil
	return errs
}
