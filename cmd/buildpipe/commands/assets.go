package commands

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"

	"git.home.luguber.info/inful/buildpipe/internal/config"
	"git.home.luguber.info/inful/buildpipe/internal/engineconfig"
	"git.home.luguber.info/inful/buildpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/buildpipe/internal/logfields"
	"git.home.luguber.info/inful/buildpipe/internal/pages"
)

// MacroCmd implements the 'macro' command.
type MacroCmd struct {
	File  string `help:"Engine settings file relative to the workspace (defaults to policy engine_settings)"`
	Value string `help:"CC_DEBUG value (true|false); defaults to IS_DEBUG"`
}

func (m *MacroCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.configFor(g, 0)
	if err != nil {
		return err
	}
	debug := cfg.EngineDebug
	if m.Value != "" {
		v, perr := strconv.ParseBool(m.Value)
		if perr != nil {
			return errors.ValidationError(fmt.Sprintf("invalid --value %q", m.Value)).UserAction().Build()
		}
		debug = v
	}
	file := m.File
	if file == "" {
		file = cfg.Policy.EngineSettings
	}

	change, err := engineconfig.SetDebugMacro(workspacePath(cfg, file), debug)
	if stderrors.Is(err, engineconfig.ErrEngineConfigMissing) {
		slog.Warn("Engine settings not found, skipping macro update", logfields.Path(workspacePath(cfg, file)))
		return nil
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Stdout, "%s=%t (%s)\n", engineconfig.DebugMacro, change.Value, change.Action)
	return nil
}

// PagesCmd implements the 'pages' command.
type PagesCmd struct {
	Dest string `help:"Destination directory (defaults to policy pages_dir)"`
}

func (p *PagesCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.configFor(g, config.NeedPlatform)
	if err != nil {
		return err
	}
	dest := p.Dest
	if dest == "" {
		dest = cfg.Policy.PagesDir
	}
	res, err := pages.Prepare(cfg.Workspace, cfg.Request.Platform, dest)
	if stderrors.Is(err, pages.ErrUnsafeDest) {
		return errors.WrapError(err, errors.CategoryValidation, "invalid --dest").Build()
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "prepare pages").Build()
	}
	if res.Skipped {
		return nil
	}
	_, _ = fmt.Fprintf(g.Stdout, "%s (%d files)\n", res.Dest, res.Files)
	return nil
}
