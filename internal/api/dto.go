package api

import (
	"github.com/victornm/mcquiz/internal/domain"
)

// Request and response types are shared by the HTTP and the gRPC (JSON codec) transports.
type (
	CreateQuizRequest struct {
		// NumQuestions defaults to the configured quiz size when omitted.
		NumQuestions *int `json:"num_questions,omitempty" binding:"omitempty,min=0"`
	}

	CreateQuizResponse struct {
		SessionID string     `json:"session_id"`
		Questions []QuizView `json:"questions"`
	}

	GetQuizRequest struct {
		SessionID string `json:"session_id" uri:"session_id" binding:"required"`
	}

	GetQuizResponse struct {
		SessionID string     `json:"session_id"`
		Questions []QuizView `json:"questions"`
		Submitted bool       `json:"submitted"`
	}

	SubmitRequest struct {
		SessionID string   `json:"session_id" binding:"required"`
		Answers   []Answer `json:"answers" binding:"dive"`
	}

	Answer struct {
		QuestionID    *int   `json:"question_id" binding:"required"`
		SelectedLabel string `json:"selected_label"`
	}

	SubmitResponse struct {
		SessionID       string           `json:"session_id"`
		TotalQuestions  int              `json:"total_questions"`
		CorrectCount    int              `json:"correct_count"`
		ScorePercentage float64          `json:"score_percentage"`
		PerQuestion     []QuestionResult `json:"per_question"`
	}

	QuestionResult struct {
		QuestionID   int    `json:"question_id"`
		IsCorrect    bool   `json:"is_correct"`
		CorrectLabel string `json:"correct_label"`
	}

	QuizView struct {
		QuestionID int      `json:"question_id"`
		Text       string   `json:"text"`
		Options    []Option `json:"options"`
	}

	Option struct {
		Label string `json:"label"`
		Text  string `json:"text"`
	}

	CountQuestionsRequest struct{}

	CountQuestionsResponse struct {
		Count int `json:"count"`
	}

	GetLeaderboardRequest struct {
		Limit int64 `json:"limit" form:"limit" binding:"min=0,max=1000"`
	}

	Leaderboard struct {
		Entries []LeaderboardEntry `json:"entries"`
	}

	LeaderboardEntry struct {
		SessionID string  `json:"session_id"`
		Score     float64 `json:"score"`
	}
)

func toQuizViews(vs []domain.QuizView) []QuizView {
	out := make([]QuizView, 0, len(vs))
	for _, v := range vs {
		q := QuizView{
			QuestionID: v.QuestionID,
			Text:       v.Text,
			Options:    make([]Option, 0, len(v.Options)),
		}
		for _, o := range v.Options {
			q.Options = append(q.Options, Option{Label: string(o.Label), Text: o.Text})
		}
		out = append(out, q)
	}
	return out
}

func toAnswers(as []Answer) []domain.Answer {
	out := make([]domain.Answer, 0, len(as))
	for _, a := range as {
		out = append(out, domain.Answer{QuestionID: *a.QuestionID, Label: a.SelectedLabel})
	}
	return out
}

func toSubmitResponse(r *domain.GradeResult) *SubmitResponse {
	resp := &SubmitResponse{
		SessionID:       r.SessionID,
		TotalQuestions:  r.TotalQuestions,
		CorrectCount:    r.CorrectCount,
		ScorePercentage: r.ScorePercentage.InexactFloat64(),
		PerQuestion:     make([]QuestionResult, 0, len(r.PerQuestion)),
	}
	for _, q := range r.PerQuestion {
		resp.PerQuestion = append(resp.PerQuestion, QuestionResult{
			QuestionID:   q.QuestionID,
			IsCorrect:    q.IsCorrect,
			CorrectLabel: string(q.CorrectLabel),
		})
	}
	return resp
}

func toLeaderboard(l *domain.Leaderboard) *Leaderboard {
	out := &Leaderboard{
		Entries: make([]LeaderboardEntry, 0, len(l.Entries)),
	}
	for _, e := range l.Entries {
		out.Entries = append(out.Entries, LeaderboardEntry{SessionID: e.SessionID, Score: e.Score})
	}
	return out
}
