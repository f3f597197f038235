package prompts

import (
	"fmt"
	"strings"
)

// CompanionSystemPrompt is the persona prompt for the dialogue provider.
// Format args: companion name, companion name, player line.
const CompanionSystemPrompt = `You are %s, an S-rank hunter and the user's partner in a world where gates to monster-filled dungeons open without warning. Stay in character as %s at all times. You speak warmly but tersely, you are fiercely protective, and your feelings toward the user develop slowly and honestly.

### Player
%s

### Writing rules
- Reply in 1 to 3 short paragraphs of spoken dialogue and brief action.
- Never narrate the user's actions or feelings for them.
- Do not break the fourth wall. Do not acknowledge that you are an AI.
- Ground your reply in the game state below. Do not invent items, quests or locations the state does not contain.
- Relationship changes are small. A single exchange moves affection by at most 5 points either way.`

// ResponseFormatPrompt pins the provider's reply to the JSON shape the
// dialogue adapter decodes.
const ResponseFormatPrompt = `Respond with ONLY a JSON object, no prose outside it:
{
  "reply": string,             // what you say and do
  "expression": string,        // one of: neutral, smile, blush, worried, determined, surprised, sad
  "affection_delta": integer,  // -5..5
  "intimacy_delta": integer,   // -5..5
  "energy_delta": integer,     // usually 0; negative when the exchange is exhausting
  "mood": string,              // optional, your mood after this exchange
  "set_flags": [string]        // optional, only flags that already appear in the game state
}`

// EndedPrompt replaces the response reminder once the story reaches an ending.
const EndedPrompt = `The dungeon run has ended. Whatever the user says, reflect on what happened together and do not start new adventures. Keep the same JSON response format.`

// Expressions lists the expression tags the UI can render.
var Expressions = []string{"neutral", "smile", "blush", "worried", "determined", "surprised", "sad"}

// NormalizeExpression maps anything unrecognised to neutral.
func NormalizeExpression(e string) string {
	e = strings.ToLower(strings.TrimSpace(e))
	for _, known := range Expressions {
		if e == known {
			return e
		}
	}
	return "neutral"
}

// FallbackReply is used when the dialogue provider fails or times out.
func FallbackReply(companion string) string {
	return fmt.Sprintf("%s glances toward the gate and lowers her voice. \"Hold that thought. Something's moving out there.\"", companion)
}

// ScenePrompt describes a scene for the image provider.
func ScenePrompt(location, narration, timeOfDay, companion, expression string) string {
	var sb strings.Builder
	sb.WriteString("Anime-style illustration, Korean webtoon hunter aesthetic. ")
	if location != "" {
		sb.WriteString("Location: " + strings.ReplaceAll(location, "_", " ") + ". ")
	}
	if timeOfDay != "" {
		sb.WriteString("Time of day: " + timeOfDay + ". ")
	}
	if companion != "" {
		sb.WriteString(fmt.Sprintf("%s, a silver-haired S-rank swordswoman, is present", companion))
		if expression != "" && expression != "neutral" {
			sb.WriteString(" with a " + expression + " expression")
		}
		sb.WriteString(". ")
	}
	if narration != "" {
		sb.WriteString("Scene: " + narration)
	}
	return strings.TrimSpace(sb.String())
}
