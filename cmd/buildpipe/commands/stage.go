package commands

import (
	"fmt"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/buildpipe/internal/config"
	"git.home.luguber.info/inful/buildpipe/internal/pipeline"
	"git.home.luguber.info/inful/buildpipe/internal/resolver"
	"git.home.luguber.info/inful/buildpipe/internal/stage"
)

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct{}

func (r *ResolveCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.configFor(g, config.NeedPlatform)
	if err != nil {
		return err
	}
	path, err := resolver.Resolve(cfg.Workspace, cfg.Request.Platform, cfg.Request.DebugMode)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.Stdout, path)
	return nil
}

// StageCmd implements the 'stage' command.
type StageCmd struct {
	Name string `arg:"" enum:"build,make" help:"Stage to run (build|make)"`
}

func (s *StageCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.configFor(g, config.NeedTool|config.NeedPlatform)
	if err != nil {
		return err
	}
	svc, err := newServices(g, cfg, uuid.NewString())
	if err != nil {
		return err
	}
	defer svc.close()

	res, err := pipeline.New(*cfg, svc.opts...).Stage(g.Ctx, cfg.Request, stage.Name(s.Name))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Stdout, "%s exit=%d\n", s.Name, res.ExitCode)
	return nil
}
