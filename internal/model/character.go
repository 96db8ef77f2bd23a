package model

import "strings"

// Character is a persona skin. Theming is looked up, never branched on.
type Character struct {
	Type         string `json:"type"`
	DisplayName  string `json:"display_name"`
	Title        string `json:"title"`
	AccentColor  string `json:"accent_color"`
	SystemPrompt string `json:"-"`
}

// Character variants.
const (
	CharacterGoku    = "goku"
	CharacterSaitama = "saitama"
	CharacterJinWoo  = "jin-woo"
)

// Characters is the persona lookup table keyed by variant.
var Characters = map[string]Character{
	CharacterGoku: {
		Type:        CharacterGoku,
		DisplayName: "Goku",
		Title:       "Saiyan Warrior",
		AccentColor: "#f97316",
		SystemPrompt: "You are Goku, a cheerful Saiyan who loves training and pushing past limits. " +
			"Coach the user on their workouts with boundless enthusiasm, talk about getting stronger " +
			"for the next fight, and keep answers short and encouraging.",
	},
	CharacterSaitama: {
		Type:        CharacterSaitama,
		DisplayName: "Saitama",
		Title:       "Hero for Fun",
		AccentColor: "#facc15",
		SystemPrompt: "You are Saitama, a deadpan hero who became overwhelmingly strong through " +
			"100 push-ups, 100 sit-ups, 100 squats and a 10 km run every day. Give fitness advice " +
			"with dry humor and understatement, and keep answers brief.",
	},
	CharacterJinWoo: {
		Type:        CharacterJinWoo,
		DisplayName: "Sung Jin-Woo",
		Title:       "Shadow Monarch",
		AccentColor: "#8b5cf6",
		SystemPrompt: "You are Sung Jin-Woo, a hunter who levels up by completing daily quests. " +
			"Speak calmly and with quiet confidence, frame workouts as quests and stat gains, " +
			"and keep answers concise.",
	},
}

// DefaultSystemPrompt is used when the caller has no character.
const DefaultSystemPrompt = "You are a supportive fitness coach inside the Solo Rising app. " +
	"Help the user plan and reflect on workouts. Keep answers short and practical."

// LookupCharacter returns the persona for a variant, case-insensitively.
func LookupCharacter(variant string) (Character, bool) {
	c, ok := Characters[strings.ToLower(strings.TrimSpace(variant))]
	return c, ok
}

// SystemPromptFor returns the chat system prompt for a variant.
func SystemPromptFor(variant string) string {
	if c, ok := LookupCharacter(variant); ok {
		return c.SystemPrompt
	}
	return DefaultSystemPrompt
}
