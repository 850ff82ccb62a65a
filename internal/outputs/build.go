package outputs

import (
	"log/slog"

	"git.home.luguber.info/inful/buildpipe/internal/config"
)

// FromConfig assembles the configured sinks. The returned close function
// releases network connections and is safe to call once.
func FromConfig(cfg config.OutputsConfig, runID string) (Multi, func(), error) {
	sinks := Multi{Log{}}
	closers := []func(){}

	if cfg.GitHubOutput != "" {
		sinks = append(sinks, NewFileSink(cfg.GitHubOutput))
	}
	if cfg.GitHubEnv != "" {
		sinks = append(sinks, NewEnvFileSink(cfg.GitHubEnv))
	}
	if cfg.NATSURL != "" {
		s, closeFn, err := DialNATS(cfg.NATSURL, cfg.NATSSubject, runID)
		if err != nil {
			return nil, func() {}, err
		}
		sinks = append(sinks, s)
		closers = append(closers, closeFn)
	}
	slog.Debug("Output sinks configured", slog.Int("count", len(sinks)))

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}
