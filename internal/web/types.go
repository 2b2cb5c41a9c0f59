package web

// HomePage is what the landing page shows.
type HomePage struct {
	Modes         []ModeOption
	PublicBaseURL string
}

type ModeOption struct {
	Value       string
	Label       string
	Description string
}
