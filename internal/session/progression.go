package session

import (
	"context"

	"github.com/jwebster45206/gatebound/pkg/progression"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// ProgressionResult is the session state after a progression operation.
type ProgressionResult struct {
	State   *state.GameState           `json:"state"`
	LevelUp *progression.LevelUpResult `json:"level_up,omitempty"`
	Skill   *state.Skill               `json:"skill,omitempty"`
}

func (s *Service) levelled(ctx context.Context, id string, gs *state.GameState, lu progression.LevelUpResult) *ProgressionResult {
	s.publishLevelUps(ctx, id, []progression.LevelUpResult{lu})
	s.publishStateUpdated(ctx, gs)
	return &ProgressionResult{State: gs, LevelUp: &lu}
}

func (s *Service) AddExperience(ctx context.Context, id string, amount int, source string) (*ProgressionResult, error) {
	var lu progression.LevelUpResult
	gs, err := s.mutate(ctx, id, func(gs *state.GameState) error {
		var err error
		lu, err = progression.AddExperience(gs, amount, source)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Experience added", "session_id", id, "amount", amount, "source", source, "level", gs.Level)
	return s.levelled(ctx, id, gs, lu), nil
}

func (s *Service) LevelUp(ctx context.Context, id string) (*ProgressionResult, error) {
	var lu progression.LevelUpResult
	gs, err := s.mutate(ctx, id, func(gs *state.GameState) error {
		var err error
		lu, err = progression.LevelUp(gs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.levelled(ctx, id, gs, lu), nil
}

func (s *Service) AllocateStatPoint(ctx context.Context, id, stat string) (*ProgressionResult, error) {
	gs, err := s.mutate(ctx, id, func(gs *state.GameState) error {
		return progression.AllocateStatPoint(gs, stat)
	})
	if err != nil {
		return nil, err
	}
	s.publishStateUpdated(ctx, gs)
	return &ProgressionResult{State: gs}, nil
}

func (s *Service) UpgradeSkill(ctx context.Context, id, skillID string) (*ProgressionResult, error) {
	return s.skill(ctx, id, skillID, progression.UpgradeSkill)
}

func (s *Service) UnlockSkill(ctx context.Context, id, skillID string) (*ProgressionResult, error) {
	return s.skill(ctx, id, skillID, progression.UnlockSkill)
}

func (s *Service) skill(ctx context.Context, id, skillID string, op func(*state.GameState, string) (*state.Skill, error)) (*ProgressionResult, error) {
	var skill state.Skill
	gs, err := s.mutate(ctx, id, func(gs *state.GameState) error {
		sk, err := op(gs, skillID)
		if err != nil {
			return err
		}
		skill = *sk
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Skill levelled", "session_id", id, "skill_id", skillID, "level", skill.Level)
	s.publishStateUpdated(ctx, gs)
	return &ProgressionResult{State: gs, Skill: &skill}, nil
}

// SkillTree returns the static tree overlaid with the session's skills.
func (s *Service) SkillTree(ctx context.Context, id string) ([]progression.SkillNode, error) {
	gs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return progression.SkillTree(gs), nil
}
