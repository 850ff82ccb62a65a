package commands

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/buildpipe/internal/config"
	"git.home.luguber.info/inful/buildpipe/internal/logfields"
	"git.home.luguber.info/inful/buildpipe/internal/pipeline"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	NoPublish bool `name:"no-publish" help:"Stop after the build stages; skip artifact collection and outputs"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.configFor(g, config.NeedTool|config.NeedPlatform)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	svc, err := newServices(g, cfg, runID)
	if err != nil {
		return err
	}
	defer svc.close()

	o := pipeline.New(*cfg, svc.opts...)
	if r.NoPublish {
		res, err := o.Run(g.Ctx, cfg.Request)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.Stdout, "%s %s\n", res.RunID, res.State)
		return nil
	}

	rel, err := o.Release(g.Ctx, cfg.Request)
	if err != nil {
		return err
	}
	slog.Info("Artifact published",
		logfields.RunID(rel.RunID),
		logfields.Artifact(rel.Published.Name.FileName),
		logfields.Tag(rel.Published.Name.TagSlug))
	_, _ = fmt.Fprintln(g.Stdout, rel.Published.Path)
	return nil
}
