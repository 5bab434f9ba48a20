package session

import (
	"github.com/victornm/mcquiz/internal/domain"
)

// questionRecord is the stored form of a question of a session, answer included.
type questionRecord struct {
	Text    string                     `json:"text"`
	Options [domain.OptionCount]string `json:"options"`
	Answer  domain.Label               `json:"answer"`
}

func toRecords(qs []domain.Question) []questionRecord {
	rs := make([]questionRecord, 0, len(qs))
	for _, q := range qs {
		rs = append(rs, questionRecord{Text: q.Text, Options: q.Options, Answer: q.Answer})
	}
	return rs
}

func fromRecords(rs []questionRecord) []domain.Question {
	qs := make([]domain.Question, 0, len(rs))
	for _, r := range rs {
		qs = append(qs, domain.Question{Text: r.Text, Options: r.Options, Answer: r.Answer})
	}
	return qs
}
