package extract

import "log/slog"

// Event is the sealed extraction event type. Each concrete event carries its
// own typed payload; there is no generic attribute bag.
type Event interface {
	isEvent()
}

// StageOutcome is emitted once per stage execution, success or failure.
type StageOutcome struct {
	Stage      string
	Attempts   int
	Items      int
	DurationMS int64
	Error      string // empty on success
}

func (StageOutcome) isEvent() {}

// CascadeFallback is emitted when one rank fails and the next is attempted.
type CascadeFallback struct {
	FromRank int
	ToRank   int
	Reason   string
}

func (CascadeFallback) isEvent() {}

// GleaningRound is emitted after each gleaning probe/continuation round.
type GleaningRound struct {
	Kind     string // "entities" or "relations"
	Round    int
	Added    int
	Complete bool
}

func (GleaningRound) isEvent() {}

// DuplicatesRemoved is emitted by dedup passes that drop items.
type DuplicatesRemoved struct {
	Kind  string
	Count int
}

func (DuplicatesRemoved) isEvent() {}

// Sink receives extraction events. Emit must be safe for concurrent use.
type Sink interface {
	Emit(Event)
}

// LogSink writes every event to slog. The zero logger uses the default.
type LogSink struct {
	Logger *slog.Logger
}

// Emit logs one event with its typed fields.
func (s LogSink) Emit(ev Event) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch e := ev.(type) {
	case StageOutcome:
		if e.Error != "" {
			logger.Warn("stage_failed", "stage", e.Stage, "attempts", e.Attempts,
				"duration_ms", e.DurationMS, "error", e.Error)
		} else {
			logger.Info("stage_complete", "stage", e.Stage, "attempts", e.Attempts,
				"items", e.Items, "duration_ms", e.DurationMS)
		}
	case CascadeFallback:
		logger.Warn("cascade_fallback", "from_rank", e.FromRank, "to_rank", e.ToRank, "reason", e.Reason)
	case GleaningRound:
		logger.Info("gleaning_round", "kind", e.Kind, "round", e.Round,
			"added", e.Added, "complete", e.Complete)
	case DuplicatesRemoved:
		logger.Info("duplicates_removed", "kind", e.Kind, "count", e.Count)
	}
}
