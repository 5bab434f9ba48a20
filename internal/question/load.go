package question

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/victornm/mcquiz/internal/domain"
)

// ErrLoad is returned when the question source cannot be read or decoded.
var ErrLoad = errors.New("load questions")

const (
	fieldSeparator = ";"
	recordFields   = 1 + domain.OptionCount + 1
	maxLineSize    = 1024 * 1024
)

// record is the YAML/JSON shape of a question.
type record struct {
	Question string   `yaml:"question" json:"question"`
	Options  []string `yaml:"options" json:"options"`
	Answer   string   `yaml:"answer" json:"answer"`
}

// Load reads the question bank from path. The format is chosen by extension: .yaml/.yml
// and .json hold a list of records, anything else is read as one question per line with
// 6 fields separated by ';'. Malformed records are skipped, an empty bank is not an error.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrLoad, path, err)
	}

	var qs []domain.Question
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		qs, err = parseYAML(data)
	case ".json":
		qs, err = parseJSON(data)
	default:
		qs, err = parseLines(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrLoad, path, err)
	}

	slog.Info("question: loaded question bank", "path", path, "questions", len(qs))
	return NewStore(qs), nil
}

func parseLines(r io.Reader) ([]domain.Question, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var qs []domain.Question
	for sc.Scan() {
		fields := strings.Split(strings.TrimSpace(sc.Text()), fieldSeparator)
		if len(fields) != recordFields {
			continue
		}

		q, ok := newQuestion(fields[0], fields[1:1+domain.OptionCount], fields[recordFields-1])
		if !ok {
			continue
		}
		qs = append(qs, q)
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}

	return qs, nil
}

func parseYAML(data []byte) ([]domain.Question, error) {
	var rs []record
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, err
	}
	return fromRecords(rs), nil
}

func parseJSON(data []byte) ([]domain.Question, error) {
	var rs []record
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, err
	}
	return fromRecords(rs), nil
}

func fromRecords(rs []record) []domain.Question {
	qs := make([]domain.Question, 0, len(rs))
	for _, r := range rs {
		if len(r.Options) != domain.OptionCount {
			continue
		}
		if q, ok := newQuestion(r.Question, r.Options, r.Answer); ok {
			qs = append(qs, q)
		}
	}
	return qs
}

func newQuestion(text string, options []string, answer string) (domain.Question, bool) {
	label, ok := domain.ParseLabel(strings.ToUpper(strings.TrimSpace(answer)))
	if !ok {
		return domain.Question{}, false
	}

	q := domain.Question{
		Text:   strings.TrimSpace(text),
		Answer: label,
	}
	copy(q.Options[:], options)
	return q, true
}
