package models

import "time"

// Results holds every graded class of a user for one session.
type Results struct {
	LastUpdate time.Time     `json:"lastUpdate"`
	Classes    []ClassResult `json:"classes"`
}

// ClassResult is one class with its evaluations. FinalGrade travels as
// "final" on the wire; an empty value means no final grade yet.
type ClassResult struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Group      string     `json:"group"`
	Year       string     `json:"year"`
	Results    []Result   `json:"results"`
	Total      ResultInfo `json:"total"`
	FinalGrade string     `json:"final,omitempty"`
}

// HasFinalGrade reports whether the final grade row should be shown.
func (c ClassResult) HasFinalGrade() bool {
	return c.FinalGrade != ""
}

// Result is a single evaluation.
type Result struct {
	Name     string     `json:"name"`
	Normal   ResultInfo `json:"normal"`
	Weighted ResultInfo `json:"weighted"`
}

// ResultInfo values are formatted by the server and treated as opaque text.
type ResultInfo struct {
	Result      string `json:"result"`
	Average     string `json:"average"`
	StandardDev string `json:"standardDev"`
}

// StoredResults is the persisted results document of a user.
type StoredResults struct {
	UserID     string        `db:"user_id"`
	LastUpdate time.Time     `db:"last_update"`
	Classes    []ClassResult `db:"-"`
	RawClasses []byte        `db:"classes"`
}

// ForSession returns the classes graded in the given session.
func (s *StoredResults) ForSession(session string) *Results {
	out := &Results{Classes: []ClassResult{}}
	if s == nil {
		return out
	}
	out.LastUpdate = s.LastUpdate
	for _, class := range s.Classes {
		if class.Year == session {
			out.Classes = append(out.Classes, class)
		}
	}
	return out
}
