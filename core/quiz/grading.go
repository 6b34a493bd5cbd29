package quiz

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/solarsys/core/question"
)

// Answer is a learner's choice for one question. A null SelectedIndex means unanswered.
type Answer struct {
	QuestionID    string   `json:"questionId"`
	SelectedIndex null.Int `json:"selectedIndex"`
}

// UnmarshalJSON also accepts selectedIndex as a string. A numeric string is read as its
// number, any other string as unanswered.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw struct {
		QuestionID    string          `json:"questionId"`
		SelectedIndex json.RawMessage `json:"selectedIndex"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.QuestionID = raw.QuestionID
	a.SelectedIndex = null.Int{}

	sel := bytes.TrimSpace(raw.SelectedIndex)
	if len(sel) == 0 {
		return nil
	}
	if sel[0] != '"' {
		return a.SelectedIndex.UnmarshalJSON(sel)
	}

	var str string
	if err := json.Unmarshal(sel, &str); err != nil {
		return err
	}
	if idx, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
		a.SelectedIndex = null.IntFrom(idx)
	}
	return nil
}

// Result is the verdict for one question.
type Result struct {
	QuestionID    string   `json:"questionId"`
	SelectedIndex null.Int `json:"selectedIndex"`
	CorrectIndex  int      `json:"correctIndex"`
	IsCorrect     bool     `json:"isCorrect"`
	Explanation   string   `json:"explanation"`
}

type Grading struct {
	Score   int
	Total   int
	Results []Result
}

// Grade checks answers against questions. It has no side effects.
//
// Results follow the order of questions. Answers for unknown questions are ignored,
// unanswered questions are incorrect with a null SelectedIndex and when a question is
// answered more than once the last answer wins.
func Grade(questions []question.Question, answers []Answer) Grading {
	selected := make(map[string]null.Int, len(answers))
	for _, a := range answers {
		if a.QuestionID == "" {
			continue
		}
		selected[a.QuestionID] = a.SelectedIndex
	}

	g := Grading{Total: len(questions), Results: make([]Result, 0, len(questions))}
	for _, q := range questions {
		sel := selected[q.ID] // null when absent
		correct := sel.Valid && sel.Int == q.CorrectIndex
		if correct {
			g.Score++
		}
		g.Results = append(g.Results, Result{
			QuestionID:    q.ID,
			SelectedIndex: sel,
			CorrectIndex:  q.CorrectIndex,
			IsCorrect:     correct,
			Explanation:   q.Explanation,
		})
	}
	return g
}
