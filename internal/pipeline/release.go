package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/buildpipe/internal/artifact"
	"git.home.luguber.info/inful/buildpipe/internal/config"
	"git.home.luguber.info/inful/buildpipe/internal/history"
	"git.home.luguber.info/inful/buildpipe/internal/logfields"
	"git.home.luguber.info/inful/buildpipe/internal/metrics"
	"git.home.luguber.info/inful/buildpipe/internal/naming"
	"git.home.luguber.info/inful/buildpipe/internal/outputs"
)

// Release is the outcome of a full run including the publishing handoff.
type Release struct {
	Result
	Collected artifact.Candidate
	Published naming.Published
	Commit    string
}

// Release runs the stages, then collects, names and publishes the artifact and
// emits the named outputs. The rename is the last filesystem step. The run is
// recorded in history whatever the outcome.
func (o *Orchestrator) Release(ctx context.Context, req config.BuildRequest) (Release, error) {
	r := o.newRun(req)
	rel := Release{}
	if o.repo != nil {
		if h, err := o.repo.Head(); err == nil {
			rel.Commit = h.Commit
		} else {
			r.logger.Debug("No git HEAD for run record", logfields.Error(err))
		}
	}

	err := o.runStages(ctx, r)
	if err == nil {
		err = o.handoff(ctx, r, &rel)
	}
	if err == nil {
		err = o.transition(r, StateDone, nil)
	}
	res, err := o.finish(r, err)
	rel.Result = res

	o.recordOutcome(ctx, r, rel, err)
	return rel, err
}

func (o *Orchestrator) handoff(ctx context.Context, r *run, rel *Release) error {
	collected, err := o.Collect(ctx, r.id, r.req)
	if err != nil {
		return err
	}
	rel.Collected = collected

	pub, err := o.Publish(r.id, collected.Path, r.req)
	if err != nil {
		return err
	}
	rel.Published = pub
	return nil
}

// Collect locates and stages the artifact, emitting collected_path.
func (o *Orchestrator) Collect(ctx context.Context, runID string, req config.BuildRequest) (artifact.Candidate, error) {
	c, err := o.locator.Locate(ctx, req.Platform, req.DebugMode, o.cfg.Workspace)
	if err != nil {
		return artifact.Candidate{}, err
	}
	o.publish(ArtifactCollected{RunID: runID, Candidate: c})
	if err := o.sink.Set(outputs.KeyCollectedPath, c.Path); err != nil {
		return c, err
	}
	return c, nil
}

// Publish names the artifact at src, moves it into the staging directory and
// emits artifact_path, artifact_name and tag_name. An empty or missing src
// falls back to the newest staged file.
func (o *Orchestrator) Publish(runID, src string, req config.BuildRequest) (naming.Published, error) {
	staging := o.locator.StagingDir(o.cfg.Workspace)
	pub, err := o.namer.Publish(src, staging, naming.InputsFor(req))
	if err != nil {
		return naming.Published{}, err
	}
	o.publish(ArtifactPublished{RunID: runID, Published: pub})
	o.warnOnTagCollision(pub.Name.TagSlug)

	if fi, err := os.Stat(pub.Path); err == nil {
		o.recorder.SetArtifactBytes(string(req.Platform), fi.Size())
	}

	setErr := errors.Join(
		o.sink.Set(outputs.KeyArtifactPath, pub.Path),
		o.sink.Set(outputs.KeyArtifactName, pub.Name.FileName),
		o.sink.Set(outputs.KeyTagName, pub.Name.TagSlug),
	)
	if setErr != nil {
		return pub, setErr
	}
	return pub, outputs.Flush(o.sink)
}

func (o *Orchestrator) warnOnTagCollision(slug string) {
	if !o.cfg.Policy.CheckTags || o.repo == nil {
		return
	}
	exists, err := o.repo.TagExists(slug)
	if err != nil {
		slog.Debug("Tag check skipped", logfields.Tag(slug), logfields.Error(err))
		return
	}
	if exists {
		slog.Warn("Tag already exists in repository", logfields.Tag(slug))
	}
}

func (o *Orchestrator) recordOutcome(ctx context.Context, r *run, rel Release, err error) {
	platform := string(r.req.Platform)
	o.recorder.ObservePipelineDuration(platform, rel.Duration)
	switch {
	case err == nil:
		o.recorder.IncPipelineOutcome(platform, metrics.OutcomeSuccess)
	case errors.Is(err, context.Canceled):
		o.recorder.IncPipelineOutcome(platform, metrics.OutcomeCanceled)
	default:
		o.recorder.IncPipelineOutcome(platform, metrics.OutcomeFailed)
	}

	if o.history == nil {
		return
	}
	code := 0
	if err != nil {
		code = ExitCodeFor(err)
	}
	record := history.Run{
		ID:           r.id,
		StartedAt:    r.started,
		FinishedAt:   r.started.Add(rel.Duration),
		Platform:     platform,
		Mode:         r.req.Mode(),
		State:        string(rel.State),
		ExitCode:     code,
		ArtifactPath: rel.Published.Path,
		ArtifactName: rel.Published.Name.FileName,
		TagSlug:      rel.Published.Name.TagSlug,
		Commit:       rel.Commit,
		Error:        describe(err),
	}
	for _, s := range rel.Stages {
		record.Stages = append(record.Stages, history.StageRecord{
			Name:     string(s.Stage),
			ExitCode: s.Result.ExitCode,
			Accepted: s.Result.Succeeded,
			Duration: s.Result.Duration,
		})
	}
	// A cancelled run still gets recorded.
	if rerr := o.history.Record(context.WithoutCancel(ctx), record); rerr != nil {
		slog.Warn("Failed to record run history", logfields.RunID(r.id), logfields.Error(rerr))
	}
}
