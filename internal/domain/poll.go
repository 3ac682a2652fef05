package domain

import (
	"fmt"
	"strings"
)

type PollID string

// Poll is open for as long as it exists in the room. Closing removes it.
// Votes always has exactly one key per entry of Options.
type Poll struct {
	ID       PollID         `json:"poll_id"`
	Question string         `json:"question"`
	Options  []string       `json:"options"`
	Votes    map[string]int `json:"votes"`
}

// OptionCount is one line of a tally, in option order.
type OptionCount struct {
	Option string `json:"option"`
	Votes  int    `json:"votes"`
}

// PollResult is reported when a poll is closed.
type PollResult struct {
	PollID   PollID        `json:"poll_id"`
	Question string        `json:"question"`
	Tally    []OptionCount `json:"tally"`
	Winner   string        `json:"winner"`
	Total    int           `json:"total"`
}

// NewPoll drops duplicate and empty options, keeping first-seen order.
func NewPoll(id PollID, question string, options []string) (Poll, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Poll{}, ErrInvalidPoll
	}
	seen := make(map[string]bool, len(options))
	opts := make([]string, 0, len(options))
	for _, o := range options {
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		opts = append(opts, o)
	}
	if len(opts) == 0 {
		return Poll{}, ErrInvalidPoll
	}
	votes := make(map[string]int, len(opts))
	for _, o := range opts {
		votes[o] = 0
	}
	return Poll{ID: id, Question: question, Options: opts, Votes: votes}, nil
}

func (p *Poll) Vote(option string) error {
	if _, ok := p.Votes[option]; !ok {
		return ErrInvalidOption.Withf("%q is not an option of poll %s", option, p.ID)
	}
	p.Votes[option]++
	return nil
}

// Result tallies the poll. Ties go to the option listed first.
func (p Poll) Result() PollResult {
	res := PollResult{PollID: p.ID, Question: p.Question, Tally: make([]OptionCount, 0, len(p.Options))}
	best := -1
	for _, o := range p.Options {
		n := p.Votes[o]
		res.Tally = append(res.Tally, OptionCount{Option: o, Votes: n})
		res.Total += n
		if n > best {
			best = n
			res.Winner = o
		}
	}
	return res
}

// String renders the tally as "a=1, b=2".
func (r PollResult) String() string {
	parts := make([]string, 0, len(r.Tally))
	for _, c := range r.Tally {
		parts = append(parts, fmt.Sprintf("%s=%d", c.Option, c.Votes))
	}
	return strings.Join(parts, ", ")
}

func (p Poll) clone() Poll {
	opts := make([]string, len(p.Options))
	copy(opts, p.Options)
	votes := make(map[string]int, len(p.Votes))
	for k, v := range p.Votes {
		votes[k] = v
	}
	p.Options = opts
	p.Votes = votes
	return p
}
