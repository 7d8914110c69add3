package autopick

import (
	"fmt"
	"strings"
)

// Themed candidate lists keyed by keywords matched against the draft name.
// Keeps timeout picks from reading like obvious filler in the common party
// themes.
var themedCandidates = []struct {
	keywords   []string
	candidates []string
}{
	{
		keywords: []string{"restaurant", "food", "eat", "dinner", "lunch"},
		candidates: []string{
			"Pizza Place", "Taco Truck", "Sushi Bar", "Burger Joint",
			"Thai Kitchen", "Ramen Shop", "BBQ Pit", "Diner Down the Street",
		},
	},
	{
		keywords: []string{"movie", "film", "cinema"},
		candidates: []string{
			"The Godfather", "Back to the Future", "Jurassic Park",
			"The Matrix", "Jaws", "Toy Story", "Die Hard", "Casablanca",
		},
	},
	{
		keywords: []string{"sport", "team", "athlete"},
		candidates: []string{
			"Basketball", "Soccer", "Tennis", "Hockey",
			"Baseball", "Golf", "Swimming", "Track and Field",
		},
	},
	{
		keywords: []string{"music", "song", "band", "album"},
		candidates: []string{
			"Bohemian Rhapsody", "Hey Jude", "Purple Rain",
			"Thriller", "Hotel California", "Smells Like Teen Spirit",
			"Respect", "Superstition",
		},
	},
	{
		keywords: []string{"game", "video"},
		candidates: []string{
			"Chess", "Tetris", "Super Mario Bros", "Minecraft",
			"The Legend of Zelda", "Monopoly", "Poker", "Pac-Man",
		},
	},
}

// fallbackPayload synthesizes a freeform auto-pick: a theme-matched candidate
// when the draft name hints at one, then generic placeholders, never
// colliding (case-insensitively) with an already used payload.
func fallbackPayload(draftName string, pickNumber int, used map[string]bool) string {
	name := strings.ToLower(draftName)
	for _, theme := range themedCandidates {
		for _, kw := range theme.keywords {
			if !strings.Contains(name, kw) {
				continue
			}
			for _, candidate := range theme.candidates {
				if !used[strings.ToLower(candidate)] {
					return candidate
				}
			}
		}
	}

	for _, generic := range []string{
		fmt.Sprintf("Item %d", pickNumber),
		fmt.Sprintf("Auto-Pick #%d", pickNumber),
		fmt.Sprintf("Auto Pick #%d", pickNumber),
	} {
		if !used[strings.ToLower(generic)] {
			return generic
		}
	}

	// Pick numbers are unique, so at most the three variants above can
	// collide with prior auto-picks of the same number after a rollback.
	return fmt.Sprintf("Auto Pick #%d (redo)", pickNumber)
}
