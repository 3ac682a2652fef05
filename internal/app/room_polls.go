package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchroom/internal/domain"
)

func (s *RoomService) CreatePoll(ctx context.Context, actor, question string, options []string) (domain.Poll, error) {
	var created domain.Poll
	err := s.mutate(ctx, "poll_create", actor, ActPollCreate, func(next *domain.Room, _ domain.User) ([]string, error) {
		p, err := domain.NewPoll(next.NewPollID(), question, options)
		if err != nil {
			return nil, err
		}
		next.Polls[p.ID] = p
		created = p
		return []string{fmt.Sprintf("Poll %s: %s (%s)", p.ID, p.Question, strings.Join(p.Options, ", "))}, nil
	})
	return created, err
}

// Vote counts one vote. Repeated votes by the same user all count.
func (s *RoomService) Vote(ctx context.Context, actor string, id domain.PollID, option string) error {
	return s.mutate(ctx, "vote", actor, ActVote, func(next *domain.Room, who domain.User) ([]string, error) {
		p, ok := next.Polls[id]
		if !ok {
			return nil, domain.ErrPollNotFound.Withf("poll %s not found", id)
		}
		if err := p.Vote(option); err != nil {
			return nil, err
		}
		next.Polls[id] = p
		return []string{fmt.Sprintf("%s voted for %s (poll %s).", who.Username, option, id)}, nil
	})
}

// EndPoll closes a poll for good and reports its tally.
func (s *RoomService) EndPoll(ctx context.Context, actor string, id domain.PollID) (domain.PollResult, error) {
	var res domain.PollResult
	err := s.mutate(ctx, "poll_end", actor, ActPollEnd, func(next *domain.Room, _ domain.User) ([]string, error) {
		p, ok := next.Polls[id]
		if !ok {
			return nil, domain.ErrPollNotFound.Withf("poll %s not found", id)
		}
		delete(next.Polls, id)
		res = p.Result()
		return []string{fmt.Sprintf("Poll %s closed - %s (winner = %s)", id, res, res.Winner)}, nil
	})
	if err == nil {
		log.Info().Str("module", "app.room").Str("poll", string(id)).Str("winner", res.Winner).Int("votes", res.Total).Msg("poll closed")
	}
	return res, err
}
