package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/victornm/mcquiz/internal/domain"
)

type Notification struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// PublishQuizGraded notifies the subscribers of a session that it was graded.
func (a *API) PublishQuizGraded(ctx context.Context, e domain.EventQuizGraded) error {
	return a.publishNotification(ctx, a.getSessionChannel(e.Result.SessionID), e.Name(), toSubmitResponse(&e.Result))
}

// PublishLeaderboardUpdated broadcasts the new leaderboard.
func (a *API) PublishLeaderboardUpdated(ctx context.Context, e domain.EventLeaderboardUpdated) error {
	return a.publishNotification(ctx, a.getLeaderboardChannel(), e.Name(), toLeaderboard(&e.Leaderboard))
}

func (a *API) publishNotification(ctx context.Context, channel, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, channel, b).Err()
}

func (a *API) getSessionChannel(session string) string {
	return fmt.Sprintf("%s:session:%s", a.prefix, session)
}

func (a *API) getLeaderboardChannel() string {
	return fmt.Sprintf("%s:leaderboard", a.prefix)
}
