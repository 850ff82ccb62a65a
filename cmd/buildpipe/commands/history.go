package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/buildpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/buildpipe/internal/gitinfo"
	"git.home.luguber.info/inful/buildpipe/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to list" default:"20"`
	ID    string `name:"id" help:"Show a single run"`
	JSON  bool   `name:"json" help:"Print runs as JSON"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.configFor(g, 0)
	if err != nil {
		return err
	}
	db := workspacePath(cfg, cfg.Policy.HistoryDB)
	if db == "" {
		return errors.ConfigError("history_db is not configured").UserAction().Build()
	}
	store, err := history.NewSQLiteStore(db)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var runs []history.Run
	if h.ID != "" {
		run, err := store.Get(g.Ctx, h.ID)
		if err != nil {
			return err
		}
		runs = []history.Run{run}
	} else if runs, err = store.Recent(g.Ctx, h.Limit); err != nil {
		return err
	}

	if h.JSON {
		enc := json.NewEncoder(g.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tPLATFORM\tMODE\tSTATE\tEXIT\tDURATION\tARTIFACT\tCOMMIT")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Platform, r.Mode, r.State,
			r.ExitCode, r.Duration().Round(time.Millisecond), r.ArtifactName, gitinfo.Head{Commit: r.Commit}.Short())
	}
	return tw.Flush()
}
