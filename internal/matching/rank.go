package matching

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultTopN is the number of partner matches returned when unset by config.
	DefaultTopN = 3
	// DefaultMinScore is the inclusive partner-match threshold.
	DefaultMinScore = 0.2
)

var (
	// ErrInvalidOptions is returned before any scoring when Options fail validation.
	ErrInvalidOptions = errors.New("invalid matching options")
	// ErrNilVectorizer is returned when Rank is called without a projection.
	ErrNilVectorizer = errors.New("nil vectorizer")
)

// Options controls thresholding and truncation of a ranking.
type Options struct {
	// TopN caps the number of results. 0 yields an empty result.
	TopN int `validate:"gte=0"`
	// MinScore is inclusive: candidates scoring strictly below it are dropped.
	MinScore float64 `validate:"gte=0,lte=1"`
	// Normalize is opt-in; empty means Exact.
	Normalize Normalizer `validate:"omitempty,oneof=exact casefold"`
}

// DefaultOptions returns TopN=3, MinScore=0.2 with exact token matching.
func DefaultOptions() Options {
	return Options{TopN: DefaultTopN, MinScore: DefaultMinScore, Normalize: Exact}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate reports whether o is usable. NaN and infinite scores are rejected.
func (o Options) Validate() error {
	err := getValidator().Struct(o)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(msgs, "; "))
}

// Match pairs a candidate with its similarity to the subject.
type Match[T any] struct {
	Candidate T
	Score     float64
}

// Rank scores every candidate against subject and returns the best matches:
// candidates below opts.MinScore are dropped, the rest are ordered by score
// descending with ties kept in input order, and the list is cut to opts.TopN.
func Rank[T any](subject T, candidates []T, vectorize Vectorizer[T], opts Options) ([]Match[T], error) {
	if vectorize == nil {
		return nil, ErrNilVectorizer
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return rank(vectorize(subject), candidates, vectorize, opts), nil
}

// RankVectors is Rank for a subject of a different kind than the candidates,
// such as a student scored against study groups. The subject vector is
// supplied already projected.
func RankVectors[T any](subject Vector, candidates []T, vectorize Vectorizer[T], opts Options) ([]Match[T], error) {
	if vectorize == nil {
		return nil, ErrNilVectorizer
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return rank(subject, candidates, vectorize, opts), nil
}

// TopMatches ranks partner candidates using PersonVector.
func TopMatches(subject Profile, candidates []Profile, opts Options) ([]Match[Profile], error) {
	return Rank(subject, candidates, PersonVector, opts)
}

func rank[T any](subject Vector, candidates []T, vectorize Vectorizer[T], opts Options) []Match[T] {
	if opts.TopN == 0 || len(candidates) == 0 {
		return []Match[T]{}
	}

	subject = opts.Normalize.Apply(subject)

	matches := make([]Match[T], 0, len(candidates))
	for _, c := range candidates {
		score := Similarity(subject, opts.Normalize.Apply(vectorize(c)))
		if score < opts.MinScore {
			continue
		}
		matches = append(matches, Match[T]{Candidate: c, Score: score})
	}

	// Stable sort keeps input order among equal scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > opts.TopN {
		matches = matches[:opts.TopN]
	}
	return matches
}
