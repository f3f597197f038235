package session

import (
	"context"
	"time"

	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/progression"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// QuestResult is the session state after a quest transition.
type QuestResult struct {
	State   *state.GameState           `json:"state"`
	Quest   state.Quest                `json:"quest"`
	LevelUp *progression.LevelUpResult `json:"level_up,omitempty"`
	Expired []string                   `json:"expired,omitempty"`
}

// AcceptQuest accepts a received quest and starts its timer. Overdue quests
// are expired first.
func (s *Service) AcceptQuest(ctx context.Context, id, questID string) (*QuestResult, error) {
	res := &QuestResult{}
	gs, err := s.mutate(ctx, id, func(gs *state.GameState) error {
		now := s.now()
		res.Expired = gs.ExpireQuests(now)
		if err := gs.AcceptQuest(questID, now); err != nil {
			return err
		}
		res.Quest = *gs.ActiveQuest(questID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.State = gs
	s.publishStateUpdated(ctx, gs)
	return res, nil
}

// CompleteQuest finishes an active quest and pays its rewards.
func (s *Service) CompleteQuest(ctx context.Context, id, questID string) (*QuestResult, error) {
	res := &QuestResult{}
	gs, err := s.mutate(ctx, id, func(gs *state.GameState) error {
		res.Expired = gs.ExpireQuests(s.now())
		q, err := gs.FinishQuest(questID, state.QuestCompleted)
		if err != nil {
			return err
		}
		res.Quest = q
		gs.AddGold(q.Rewards.Gold)
		gs.AdjustAffection(q.Rewards.Affection)
		for _, item := range q.Rewards.Items {
			gs.AddItem(item)
		}
		if q.Rewards.Experience > 0 {
			lu, err := progression.AddExperience(gs, q.Rewards.Experience, "quest:"+q.ID)
			if err != nil {
				return err
			}
			res.LevelUp = &lu
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.State = gs
	s.logger.Info("Quest completed", "session_id", id, "quest_id", questID)
	if res.LevelUp != nil {
		s.publishLevelUps(ctx, id, []progression.LevelUpResult{*res.LevelUp})
	}
	s.publishStateUpdated(ctx, gs)
	return res, nil
}

// ActivityResult is the session state after an activity change.
type ActivityResult struct {
	State    *state.GameState         `json:"state"`
	Activity *state.ScheduledActivity `json:"activity"`
}

// ScheduleActivity proposes an activity with the companion at a time.
func (s *Service) ScheduleActivity(ctx context.Context, id, activityID string, at time.Time) (*ActivityResult, error) {
	if activityID == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "activity_id is required")
	}
	res := &ActivityResult{}
	gs, err := s.mutate(ctx, id, func(gs *state.GameState) error {
		now := s.now()
		if at.IsZero() {
			at = now
		}
		sa, err := gs.ScheduleActivity(activityID, at, now)
		if err != nil {
			return err
		}
		res.Activity = sa
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.State = gs
	s.publishStateUpdated(ctx, gs)
	return res, nil
}

// TransitionActivity moves a scheduled activity along its lifecycle.
func (s *Service) TransitionActivity(ctx context.Context, id, scheduledID string, to state.ActivityStatus) (*ActivityResult, error) {
	res := &ActivityResult{}
	gs, err := s.mutate(ctx, id, func(gs *state.GameState) error {
		sa, err := gs.TransitionActivity(scheduledID, to)
		if err != nil {
			return err
		}
		res.Activity = sa
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.State = gs
	s.publishStateUpdated(ctx, gs)
	return res, nil
}
