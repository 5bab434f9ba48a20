package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Label identifies an option of a question by its position: A is the first option, D the last.
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
)

// OptionCount is the number of options every question has.
const OptionCount = 4

// Labels lists the option labels in position order.
var Labels = [OptionCount]Label{LabelA, LabelB, LabelC, LabelD}

// ParseLabel reports whether s names one of the option labels.
func ParseLabel(s string) (Label, bool) {
	for _, l := range Labels {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// Question is a multiple-choice question of the question bank, including its answer.
type Question struct {
	Text    string
	Options [OptionCount]string
	Answer  Label
}

// View strips the answer from the question. The id is the position of the question within its quiz.
func (q Question) View(id int) QuizView {
	v := QuizView{
		QuestionID: id,
		Text:       q.Text,
		Options:    make([]Option, 0, OptionCount),
	}
	for i, o := range q.Options {
		v.Options = append(v.Options, Option{Label: Labels[i], Text: o})
	}
	return v
}

// QuizView is the client-facing representation of a question. It never carries the answer.
type QuizView struct {
	QuestionID int
	Text       string
	Options    []Option
}

type Option struct {
	Label Label
	Text  string
}

// Session represents a quiz handed out to a client, together with its answer key.
type Session struct {
	SessionID  string
	Questions  []Question
	Submitted  bool
	CreateTime time.Time
}

// Views returns the answer-free view of every question in the session, in quiz order.
func (s Session) Views() []QuizView {
	views := make([]QuizView, 0, len(s.Questions))
	for i, q := range s.Questions {
		views = append(views, q.View(i))
	}
	return views
}

// Quiz is a newly created quiz.
type Quiz struct {
	SessionID string
	Questions []QuizView
}

// QuizState is a read-back of an existing quiz.
type QuizState struct {
	SessionID string
	Questions []QuizView
	Submitted bool
}

// Answer is a single entry of a submission.
type Answer struct {
	QuestionID int
	Label      string
}

// GradeResult is the outcome of grading a submission.
type GradeResult struct {
	SessionID       string
	TotalQuestions  int
	CorrectCount    int
	ScorePercentage decimal.Decimal
	PerQuestion     []QuestionResult
}

type QuestionResult struct {
	QuestionID   int
	IsCorrect    bool
	CorrectLabel Label
}

// Leaderboard ranks graded quizzes by their score percentage, highest first.
type Leaderboard struct {
	Entries []LeaderboardEntry
}

type LeaderboardEntry struct {
	SessionID string
	Score     float64
}
