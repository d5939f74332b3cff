// Package rules holds the published hunt rules.
package rules

// Rule is one numbered directive.
type Rule struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Book is the full rules page.
type Book struct {
	Intro   string `json:"intro"`
	Rules   []Rule `json:"rules"`
	Warning string `json:"warning"`
}

var book = Book{
	Intro: "Attention Participants: Strictly adhere to the following directives to ensure mission success.",
	Rules: []Rule{
		{1, "Game Area", "The entire game takes place within the college premises. Participants must not leave the college, enter any classrooms, or access any offices. All hints are hidden within the ground floor (foyer area) and corridors across the seven floors."},
		{2, "Unique Hints", "Each hint is unique and not repeated anywhere in the game."},
		{3, "Hint Scanning & Team Leader", "Only the team leader will be allowed to use the Snapchat filter (provided before the game starts) to scan hints."},
		{4, "Smartphone Restriction", "Other than the team leader, no team member is allowed to use their smartphone during the game."},
		{5, "Team Unity", "Teams must stay together throughout the hunt. Splitting up is not allowed."},
		{6, "Movement Restrictions", "Lifts are not allowed. All teams must use the stairs to move between floors."},
		{7, "Scanning Hints", "Once a team finds a hint, they must scan it properly using the filter to reveal the next clue. Ensure the scan is clear: zoom in/out, and adjust angles if necessary."},
		{8, "Winning Criteria", "The team that completes the hunt in the shortest time wins. Each group will have a volunteer tracking their time from start to finish."},
		{9, "Rule Violation", "Any team found violating these rules will be disqualified from the game."},
	},
	Warning: "Any breach of these protocols will result in immediate disqualification. Fair play is essential for a successful hunt.",
}

// Get returns a copy of the rules book.
func Get() Book {
	b := book
	b.Rules = append([]Rule(nil), book.Rules...)
	return b
}
