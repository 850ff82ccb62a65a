package commands

import (
	"fmt"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/buildpipe/internal/config"
	"git.home.luguber.info/inful/buildpipe/internal/pipeline"
)

// CollectCmd implements the 'collect' command.
type CollectCmd struct{}

func (c *CollectCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.configFor(g, config.NeedPlatform)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	svc, err := newServices(g, cfg, runID)
	if err != nil {
		return err
	}
	defer svc.close()

	cand, err := pipeline.New(*cfg, svc.opts...).Collect(g.Ctx, runID, cfg.Request)
	if err != nil {
		return err
	}
	if err := svc.flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.Stdout, cand.Path)
	return nil
}

// RenameCmd implements the 'rename' command.
type RenameCmd struct {
	Source string `arg:"" optional:"" help:"Artifact to rename (defaults to COLLECTED_PATH, then the newest staged file)"`
}

func (r *RenameCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.configFor(g, 0)
	if err != nil {
		return err
	}
	src := r.Source
	if src == "" {
		src = cfg.CollectedPath
	}

	runID := uuid.NewString()
	svc, err := newServices(g, cfg, runID)
	if err != nil {
		return err
	}
	defer svc.close()

	pub, err := pipeline.New(*cfg, svc.opts...).Publish(runID, src, cfg.Request)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.Stdout, pub.Path)
	return nil
}
