package pipeline

import (
	"time"

	"git.home.luguber.info/inful/buildpipe/internal/artifact"
	"git.home.luguber.info/inful/buildpipe/internal/naming"
	"git.home.luguber.info/inful/buildpipe/internal/stage"
)

// Event is a domain event published by the orchestrator and consumed by handlers.
type Event interface{ Name() string }

// Event names used in the pipeline.
const (
	EventStateChanged      = "StateChanged"
	EventStageFinished     = "StageFinished"
	EventStabilized        = "Stabilized"
	EventArtifactCollected = "ArtifactCollected"
	EventArtifactPublished = "ArtifactPublished"
)

// StateChanged is published on every state transition.
type StateChanged struct {
	RunID string
	From  State
	To    State
	At    time.Time
	Err   error // set when To is Failed
}

func (StateChanged) Name() string { return EventStateChanged }

// StageFinished is published after each tool invocation, successful or not.
type StageFinished struct {
	RunID  string
	Stage  stage.Name
	Result stage.Result
	Err    error
}

func (StageFinished) Name() string { return EventStageFinished }

// Stabilized is published after the wait between build and make.
type Stabilized struct {
	RunID    string
	Mode     string
	Duration time.Duration
	Err      error
}

func (Stabilized) Name() string { return EventStabilized }

// ArtifactCollected is published when the locator staged an artifact.
type ArtifactCollected struct {
	RunID     string
	Candidate artifact.Candidate
}

func (ArtifactCollected) Name() string { return EventArtifactCollected }

// ArtifactPublished is published when the artifact has its final name.
type ArtifactPublished struct {
	RunID     string
	Published naming.Published
}

func (ArtifactPublished) Name() string { return EventArtifactPublished }
