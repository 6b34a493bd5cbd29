package progress

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core"
)

// Ledger applies visit and quiz point awards to Progress records.
type Ledger struct {
	repo       Repository
	planets    PlanetChecker
	visitBonus int
	perCorrect int
	nowFunc    func() time.Time
}

func NewLedger(repo Repository, planets PlanetChecker, conf core.PointsConfig) *Ledger {
	return &Ledger{
		repo:       repo,
		planets:    planets,
		visitBonus: conf.VisitBonus,
		perCorrect: conf.PerCorrectAnswer,
		nowFunc:    func() time.Time { return time.Now().UTC() },
	}
}

// QuizPoints returns the points awarded for score correct answers.
func (l *Ledger) QuizPoints(score int) int {
	return score * l.perCorrect
}

func (l *Ledger) checkPlanet(ctx context.Context, planetID string) error {
	if planetID == "" {
		return errPlanetRequired
	}
	ok, err := l.planets.Exists(ctx, planetID)
	if err != nil {
		return errors.Wrap(err, "checking planet")
	}
	if !ok {
		return ErrInvalidPlanet
	}
	return nil
}

// RecordVisit marks planetID visited. The visit bonus is only awarded the first time,
// UpdatedAt always advances.
func (l *Ledger) RecordVisit(ctx context.Context, userID, planetID string) (Progress, error) {
	planetID = core.CleanString(planetID)
	if err := l.checkPlanet(ctx, planetID); err != nil {
		return Progress{}, err
	}

	prog, err := l.repo.UpdateProgress(ctx, userID, func(p *Progress) error {
		if p.Visited.Add(planetID) {
			p.Points += l.visitBonus
		}
		p.UpdatedAt = l.nowFunc()
		return nil
	})
	return prog, errors.Wrap(err, "recording visit")
}

// QuizAward checks a graded attempt and returns the change it makes to a record: its
// points are added and its planet is marked visited without a visit bonus.
func (l *Ledger) QuizAward(ctx context.Context, planetID string, score, total int) (func(*Progress) error, error) {
	if score < 0 || score > total {
		return nil, errInvalidScore
	}
	planetID = core.CleanString(planetID)
	if err := l.checkPlanet(ctx, planetID); err != nil {
		return nil, err
	}

	return func(p *Progress) error {
		p.Points += l.QuizPoints(score)
		p.Visited.Add(planetID)
		p.UpdatedAt = l.nowFunc()
		return nil
	}, nil
}

// RecordQuizResult applies the QuizAward of a graded attempt. Every attempt awards its points.
func (l *Ledger) RecordQuizResult(ctx context.Context, userID, planetID string, score, total int) (Progress, error) {
	award, err := l.QuizAward(ctx, planetID, score, total)
	if err != nil {
		return Progress{}, err
	}
	prog, err := l.repo.UpdateProgress(ctx, userID, award)
	return prog, errors.Wrap(err, "recording quiz result")
}

// Ensure creates the user's record if it does not exist yet.
func (l *Ledger) Ensure(ctx context.Context, userID string) (Progress, error) {
	prog, err := l.repo.UpdateProgress(ctx, userID, func(*Progress) error { return nil })
	return prog, errors.Wrap(err, "ensuring progress")
}

// Get returns the user's record, or an unsaved zero record when there is none yet.
func (l *Ledger) Get(ctx context.Context, userID string) (Progress, error) {
	prog, err := l.repo.GetProgress(ctx, userID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			now := l.nowFunc()
			return Progress{UserID: userID, Visited: NewPlanetSet(), CreatedAt: now, UpdatedAt: now}, nil
		}
		return Progress{}, errors.Wrap(err, "getting progress")
	}
	return prog, nil
}
