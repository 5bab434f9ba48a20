package domain

import (
	"errors"
	"fmt"
)

var (
	ErrStoreEmpty          = errors.New("question store is empty")
	ErrSessionNotFound     = errors.New("session not found")
	ErrAlreadySubmitted    = errors.New("quiz already submitted")
	ErrAnswerCountMismatch = errors.New("number of answers doesn't match number of questions")
)

// InvalidQuestionIDError reports a submitted question id that is not part of the quiz.
type InvalidQuestionIDError struct {
	ID int
}

func (e InvalidQuestionIDError) Error() string {
	return fmt.Sprintf("invalid question ID: %d", e.ID)
}
