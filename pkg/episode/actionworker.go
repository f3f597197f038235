package episode

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/gatebound/pkg/progression"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// ActionWorker applies episode actions to one game state.
type ActionWorker struct {
	gs        *state.GameState
	episodeID string
	logger    *slog.Logger
	now       func() time.Time
	levelUps  []progression.LevelUpResult
}

func NewActionWorker(gs *state.GameState, logger *slog.Logger) *ActionWorker {
	return &ActionWorker{
		gs:     gs,
		logger: logger,
		now:    time.Now,
	}
}

// WithEpisode tags memories and completion with the owning episode.
func (w *ActionWorker) WithEpisode(id string) *ActionWorker {
	w.episodeID = id
	return w
}

func (w *ActionWorker) WithClock(now func() time.Time) *ActionWorker {
	w.now = now
	return w
}

// LevelUps returns every level gained through rewards so far.
func (w *ActionWorker) LevelUps() []progression.LevelUpResult {
	return w.levelUps
}

// ApplyAll applies actions in order and stops at the first failure.
func (w *ActionWorker) ApplyAll(actions []EpisodeAction) error {
	for i, a := range actions {
		if err := w.Apply(a.Action); err != nil {
			return fmt.Errorf("action %d (%s): %w", i, a.Command(), err)
		}
	}
	return nil
}

func (w *ActionWorker) Apply(action Action) error {
	gs := w.gs
	now := w.now()

	switch a := action.(type) {
	case DeliverMessage:
		gs.DeliverMessage(a.From, a.Subject, a.Body, now)
	case SetQuestObjective:
		gs.SetQuestObjective(a.QuestID, a.QuestTitle, a.ObjectiveID, a.Text, now)
	case SetCompanionLocation:
		gs.PinCompanion(a.Companion, a.Location)
	case ReleaseCompanionLocation:
		gs.ReleaseCompanion(a.Companion)
	case SetCompanionMood:
		gs.SetCompanionMood(a.Companion, a.Mood)
	case SpawnLocation:
		gs.UnlockLocation(state.Location{ID: a.LocationID, Name: a.Name, Description: a.Description})
	case UnlockActivity:
		gs.UnlockActivity(a.ActivityID)
	case CreateMemory:
		gs.AddMemory(state.Memory{
			Title:       a.Title,
			Description: a.Description,
			Emotion:     a.Emotion,
			EpisodeID:   w.episodeID,
		}, now)
	case GiveReward:
		return w.giveReward(a)
	case CompleteEpisode:
		if w.episodeID != "" {
			gs.MarkEpisodeComplete(w.episodeID)
		}
	case Unknown:
		w.logger.Debug("Ignoring unknown episode action", "command", a.Name, "episode_id", w.episodeID)
	default:
		w.logger.Debug("Ignoring unhandled episode action", "command", action.Command(), "episode_id", w.episodeID)
	}
	return nil
}

func (w *ActionWorker) giveReward(r GiveReward) error {
	gs := w.gs
	if r.Gold > 0 {
		gs.AddGold(r.Gold)
	}
	for _, item := range r.Items {
		gs.AddItem(item)
	}
	if r.Affection != 0 {
		gs.AdjustAffection(r.Affection)
	}
	if r.Experience > 0 {
		source := "episode"
		if w.episodeID != "" {
			source = "episode:" + w.episodeID
		}
		res, err := progression.AddExperience(gs, r.Experience, source)
		if err != nil {
			return err
		}
		if res.LevelsGained() > 0 {
			w.levelUps = append(w.levelUps, res)
		}
	}
	return nil
}
