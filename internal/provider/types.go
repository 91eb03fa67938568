package provider

// Team is an NBA franchise as served by the upstream provider.
type Team struct {
	ID           int    `json:"id"`
	Abbreviation string `json:"abbreviation"`
	City         string `json:"city"`
	Conference   string `json:"conference"`
	Division     string `json:"division"`
	FullName     string `json:"full_name"`
	Name         string `json:"name"`
}

// Player is an NBA player with their current team.
type Player struct {
	ID           int    `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Position     string `json:"position"`
	Height       string `json:"height,omitempty"`
	Weight       string `json:"weight,omitempty"`
	JerseyNumber string `json:"jersey_number,omitempty"`
	College      string `json:"college,omitempty"`
	Country      string `json:"country,omitempty"`
	Team         Team   `json:"team"`
}

// Game is a single NBA game.
type Game struct {
	ID               int    `json:"id"`
	Date             string `json:"date"`
	Season           int    `json:"season"`
	Status           string `json:"status"`
	Period           int    `json:"period"`
	Time             string `json:"time,omitempty"`
	Postseason       bool   `json:"postseason"`
	HomeTeamScore    int    `json:"home_team_score"`
	VisitorTeamScore int    `json:"visitor_team_score"`
	HomeTeam         Team   `json:"home_team"`
	VisitorTeam      Team   `json:"visitor_team"`
}

// Meta carries the provider's cursor pagination state.
type Meta struct {
	NextCursor int `json:"next_cursor,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
}

// PlayerList is a page of players.
type PlayerList struct {
	Data []Player `json:"data"`
	Meta Meta     `json:"meta"`
}

// TeamList is a page of teams.
type TeamList struct {
	Data []Team `json:"data"`
	Meta Meta   `json:"meta"`
}

// GameList is a page of games.
type GameList struct {
	Data []Game `json:"data"`
	Meta Meta   `json:"meta"`
}

// single wraps the provider's one-resource envelope.
type single[T any] struct {
	Data T `json:"data"`
}

// ListParams are the common query parameters for list endpoints.
type ListParams struct {
	// Cursor selects a page; zero means the first page.
	Cursor int

	// PerPage bounds the page size; zero uses the provider default.
	PerPage int

	// Search filters players by name. Ignored by other endpoints.
	Search string

	// Seasons filters games by season years. Ignored by other endpoints.
	Seasons []int

	// TeamIDs filters games and players by team. Ignored elsewhere.
	TeamIDs []int
}
