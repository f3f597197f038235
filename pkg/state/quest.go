package state

import (
	"fmt"
	"slices"
	"time"

	"github.com/jwebster45206/gatebound/pkg/apperr"
)

type QuestRank string

const (
	RankE QuestRank = "E"
	RankD QuestRank = "D"
	RankC QuestRank = "C"
	RankB QuestRank = "B"
	RankA QuestRank = "A"
	RankS QuestRank = "S"
)

type QuestStatus string

const (
	QuestReceived   QuestStatus = "received"
	QuestAccepted   QuestStatus = "accepted"
	QuestInProgress QuestStatus = "in_progress"
	QuestCompleted  QuestStatus = "completed"
	QuestFailed     QuestStatus = "failed"
	QuestExpired    QuestStatus = "expired"
)

var questTransitions = map[QuestStatus][]QuestStatus{
	QuestReceived:   {QuestAccepted, QuestFailed, QuestExpired},
	QuestAccepted:   {QuestInProgress, QuestCompleted, QuestFailed, QuestExpired},
	QuestInProgress: {QuestCompleted, QuestFailed, QuestExpired},
}

// Terminal reports whether no further transitions are possible.
func (s QuestStatus) Terminal() bool {
	return len(questTransitions[s]) == 0
}

type Objective struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Progress    int    `json:"progress,omitempty"`
	Target      int    `json:"target,omitempty"`
}

type Rewards struct {
	Gold       int             `json:"gold,omitempty"`
	Experience int             `json:"experience,omitempty"`
	Affection  int             `json:"affection,omitempty"`
	Items      []InventoryItem `json:"items,omitempty"`
}

type Quest struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Rank        QuestRank   `json:"rank"`
	Type        string      `json:"type"` // "story", "daily", "raid", ...
	Objectives  []Objective `json:"objectives"`
	Rewards     Rewards     `json:"rewards"`
	Status      QuestStatus `json:"status"`
	TimeLimit   int         `json:"time_limit_minutes,omitempty"`
	ReceivedAt  time.Time   `json:"received_at"`
	AcceptedAt  *time.Time  `json:"accepted_at,omitempty"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
}

// Transition moves the quest to status `to` if the lifecycle allows it.
func (q *Quest) Transition(to QuestStatus) error {
	if !slices.Contains(questTransitions[q.Status], to) {
		return apperr.WithMetadata(apperr.CodeInvalidTransition,
			fmt.Sprintf("quest %s cannot move from %s to %s", q.ID, q.Status, to),
			map[string]string{"quest_id": q.ID, "from": string(q.Status), "to": string(to)})
	}
	q.Status = to
	return nil
}

// Overdue reports whether a timed quest has passed its deadline.
func (q *Quest) Overdue(now time.Time) bool {
	return q.ExpiresAt != nil && now.After(*q.ExpiresAt) && !q.Status.Terminal()
}

// ActiveQuest returns a pointer into ActiveQuests.
func (gs *GameState) ActiveQuest(id string) *Quest {
	for i := range gs.ActiveQuests {
		if gs.ActiveQuests[i].ID == id {
			return &gs.ActiveQuests[i]
		}
	}
	return nil
}

// ReceiveQuest adds a quest in the received state. Re-receiving an active quest is a no-op.
func (gs *GameState) ReceiveQuest(q Quest, now time.Time) {
	if gs.ActiveQuest(q.ID) != nil {
		return
	}
	q.Status = QuestReceived
	q.ReceivedAt = now
	if q.Objectives == nil {
		q.Objectives = []Objective{}
	}
	gs.ActiveQuests = append(gs.ActiveQuests, q)
}

// AcceptQuest moves a received quest to accepted and starts its timer.
func (gs *GameState) AcceptQuest(id string, now time.Time) error {
	q := gs.ActiveQuest(id)
	if q == nil {
		return apperr.NotFound("quest", id)
	}
	if err := q.Transition(QuestAccepted); err != nil {
		return err
	}
	q.AcceptedAt = &now
	if q.TimeLimit > 0 {
		exp := now.Add(time.Duration(q.TimeLimit) * time.Minute)
		q.ExpiresAt = &exp
	}
	return nil
}

// SetQuestObjective sets the text of an objective, inserting the objective
// and, for story content, the quest itself when absent.
func (gs *GameState) SetQuestObjective(questID, questTitle, objectiveID, text string, now time.Time) {
	q := gs.ActiveQuest(questID)
	if q == nil {
		gs.ActiveQuests = append(gs.ActiveQuests, Quest{
			ID:         questID,
			Title:      questTitle,
			Rank:       RankE,
			Type:       "story",
			Objectives: []Objective{},
			Status:     QuestInProgress,
			ReceivedAt: now,
		})
		q = &gs.ActiveQuests[len(gs.ActiveQuests)-1]
	}
	if q.Status == QuestReceived || q.Status == QuestAccepted {
		q.Status = QuestInProgress
	}
	for i := range q.Objectives {
		if q.Objectives[i].ID == objectiveID {
			q.Objectives[i].Description = text
			return
		}
	}
	q.Objectives = append(q.Objectives, Objective{ID: objectiveID, Description: text})
}

// FinishQuest moves an active quest to the completed list with a terminal status.
func (gs *GameState) FinishQuest(id string, status QuestStatus) (Quest, error) {
	idx := slices.IndexFunc(gs.ActiveQuests, func(q Quest) bool { return q.ID == id })
	if idx < 0 {
		return Quest{}, apperr.NotFound("quest", id)
	}
	q := gs.ActiveQuests[idx]
	if err := q.Transition(status); err != nil {
		return Quest{}, err
	}
	if status == QuestCompleted {
		for i := range q.Objectives {
			q.Objectives[i].Completed = true
		}
	}
	gs.ActiveQuests = slices.Delete(gs.ActiveQuests, idx, idx+1)
	gs.CompletedQuests = append(gs.CompletedQuests, q)
	return q, nil
}

// ExpireQuests moves overdue quests to the completed list as expired.
func (gs *GameState) ExpireQuests(now time.Time) []string {
	var expired []string
	for _, q := range slices.Clone(gs.ActiveQuests) {
		if q.Overdue(now) {
			if _, err := gs.FinishQuest(q.ID, QuestExpired); err == nil {
				expired = append(expired, q.ID)
			}
		}
	}
	return expired
}

// HasCompletedQuest reports whether id was finished successfully.
func (gs *GameState) HasCompletedQuest(id string) bool {
	return slices.ContainsFunc(gs.CompletedQuests, func(q Quest) bool {
		return q.ID == id && q.Status == QuestCompleted
	})
}
