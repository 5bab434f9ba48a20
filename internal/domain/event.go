package domain

const (
	EventNameQuizCreated        = "quiz.created"
	EventNameQuizGraded         = "quiz.graded"
	EventNameLeaderboardUpdated = "leaderboard.updated"
)

type EventQuizCreated struct {
	SessionID string
	Questions int
}

func (EventQuizCreated) Name() string { return EventNameQuizCreated }

type EventQuizGraded struct {
	Result GradeResult
}

func (EventQuizGraded) Name() string { return EventNameQuizGraded }

type EventLeaderboardUpdated struct {
	Leaderboard Leaderboard
}

func (EventLeaderboardUpdated) Name() string { return EventNameLeaderboardUpdated }
