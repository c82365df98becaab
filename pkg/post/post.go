package post

import (
	"time"

	"portal/pkg/voting"
)

const (
	PostText = "text"
	PostLink = "link"
)

type PostId string

// Post field names in JSON follow the persisted snapshot layout:
// "votes" carries the score and "userVotes" the per-user ledger.
type Post struct {
	Id    PostId `json:"id"`
	Title string `json:"title"`

	// Types: [text|link].
	Type string `json:"type"`

	// Body is optional for both types, Link is set for type "link" only.
	Body string `json:"content"`
	Link string `json:"link,omitempty"`

	Author  string       `json:"author"`
	Score   int          `json:"votes"`
	Votes   voting.Votes `json:"userVotes"`
	Created time.Time    `json:"createdAt"`
}

// Draft is what an author submits.
type Draft struct {
	Title string
	Body  string
	Link  string
	Type  string
}

func (p *Post) clone() *Post {
	c := *p
	c.Votes = p.Votes.Clone()
	return &c
}
