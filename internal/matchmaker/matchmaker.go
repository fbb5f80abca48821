// Package matchmaker serves partner matches and group and resource
// recommendations for stored students on top of the matching engine.
package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/studymatch/internal/matching"
	"github.com/kalambet/studymatch/internal/metrics"
	"github.com/kalambet/studymatch/internal/profile"
	"github.com/kalambet/studymatch/internal/storage"
)

// Directory provides the subject and candidate pool for partner matching.
// Implemented by profile.Directory.
type Directory interface {
	Get(id string) (storage.Student, error)
	Candidates(excludeID string) ([]storage.Student, error)
}

// Store defines the storage reads and writes the Service needs.
// Implemented by storage.Store.
type Store interface {
	ListGroups(f storage.GroupFilter) ([]storage.StudyGroup, error)
	ListResources(limit int) ([]storage.Resource, error)
	ResourceRatings() (map[string]storage.ResourceRating, error)
	InteractedResourceIDs(studentID string) ([]string, error)
	SaveMatchHistory(h storage.MatchHistory) error
}

// HistoryQueue accepts match history records for the history worker.
// Implemented by storage.Store.
type HistoryQueue interface {
	EnqueueMatchHistory(h storage.MatchHistory) error
}

// Options holds one ranking policy per match kind.
type Options struct {
	Partners  matching.Options
	Groups    matching.Options
	Resources matching.Options
}

// DefaultOptions returns the top 3 partners scoring at least 0.2, the top 5
// groups at 0.2 and the top 5 resources at 0.1.
func DefaultOptions() Options {
	return Options{
		Partners:  matching.DefaultOptions(),
		Groups:    matching.Options{TopN: 5, MinScore: 0.2, Normalize: matching.Exact},
		Resources: matching.Options{TopN: 5, MinScore: 0.1, Normalize: matching.Exact},
	}
}

// Validate checks every policy.
func (o Options) Validate() error {
	if err := o.Partners.Validate(); err != nil {
		return fmt.Errorf("partners: %w", err)
	}
	if err := o.Groups.Validate(); err != nil {
		return fmt.Errorf("groups: %w", err)
	}
	if err := o.Resources.Validate(); err != nil {
		return fmt.Errorf("resources: %w", err)
	}
	return nil
}

// PartnerMatch is a ranked study partner as returned to callers.
type PartnerMatch struct {
	StudentID       string   `json:"student_id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Avatar          *string  `json:"avatar"`
	Score           float64  `json:"score"` // rounded to 2 decimal places
	MatchedSubjects []string `json:"matched_subjects"`
}

// GroupRecommendation is a study group with its similarity to the student.
type GroupRecommendation struct {
	storage.StudyGroup
	Score float64 `json:"score"`
}

// ResourceRecommendation is a resource with its similarity to the student
// and its average rating across students.
type ResourceRecommendation struct {
	storage.Resource
	Score         float64 `json:"score"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
}

// Recommendations bundles both recommendation kinds.
type Recommendations struct {
	Groups    []GroupRecommendation    `json:"groups"`
	Resources []ResourceRecommendation `json:"resources"`
}

// Service computes matches and recommendations.
type Service struct {
	dir    Directory
	store  Store
	queue  HistoryQueue
	opts   Options
	logger *slog.Logger
}

// New creates a Service. When queue is nil, match history is written
// synchronously through store instead of being queued.
func New(dir Directory, store Store, queue HistoryQueue, opts Options) (*Service, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		dir:    dir,
		store:  store,
		queue:  queue,
		opts:   opts,
		logger: slog.Default(),
	}, nil
}

// Options returns the ranking policies in effect.
func (s *Service) Options() Options {
	return s.opts
}

// FindPartners returns the best study partners for studentID. The student is
// never matched against themselves. An empty pool yields an empty list.
// Recording match history is best-effort and never fails the call.
func (s *Service) FindPartners(ctx context.Context, studentID string) (_ []PartnerMatch, err error) {
	start := time.Now()
	var results []PartnerMatch
	defer func() { record(metrics.KindPartners, len(results), start, err) }()

	var subject storage.Student
	var pool []storage.Student
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subject, err = s.dir.Get(studentID)
		if err != nil {
			return fmt.Errorf("loading student %s: %w", studentID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		pool, err = s.dir.Candidates(studentID)
		if err != nil {
			return fmt.Errorf("loading candidates: %w", err)
		}
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matches, err := matching.Rank(subject, pool, studentVector, s.opts.Partners)
	if err != nil {
		return nil, err
	}

	results = make([]PartnerMatch, 0, len(matches))
	for _, m := range matches {
		c := m.Candidate
		pm := PartnerMatch{
			StudentID:       c.ID,
			Name:            c.Name,
			Email:           c.Email,
			Score:           roundScore(m.Score),
			MatchedSubjects: matching.SharedTokens(subject.Subjects, c.Subjects, s.opts.Partners.Normalize),
		}
		if c.Avatar != "" {
			avatar := c.Avatar
			pm.Avatar = &avatar
		}
		results = append(results, pm)
	}

	s.recordHistory(subject.ID, matches, results)
	return results, nil
}

// RecommendGroups ranks every study group against the student's subjects and
// academic level.
func (s *Service) RecommendGroups(ctx context.Context, studentID string) (_ []GroupRecommendation, err error) {
	start := time.Now()
	var results []GroupRecommendation
	defer func() { record(metrics.KindGroups, len(results), start, err) }()

	var subject storage.Student
	var groups []storage.StudyGroup
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subject, err = s.dir.Get(studentID)
		if err != nil {
			return fmt.Errorf("loading student %s: %w", studentID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		groups, err = s.store.ListGroups(storage.GroupFilter{})
		if err != nil {
			return fmt.Errorf("loading groups: %w", err)
		}
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	vec := matching.StudentGroupVector(profile.FromStudent(subject))
	matches, err := matching.RankVectors(vec, groups, groupVector, s.opts.Groups)
	if err != nil {
		return nil, err
	}

	results = make([]GroupRecommendation, 0, len(matches))
	for _, m := range matches {
		results = append(results, GroupRecommendation{StudyGroup: m.Candidate, Score: roundScore(m.Score)})
	}
	return results, nil
}

// RecommendResources ranks every resource's subject tags against the
// student's subjects plus the resources they have already interacted with.
func (s *Service) RecommendResources(ctx context.Context, studentID string) (_ []ResourceRecommendation, err error) {
	start := time.Now()
	var results []ResourceRecommendation
	defer func() { record(metrics.KindResources, len(results), start, err) }()

	var (
		subject    storage.Student
		resources  []storage.Resource
		interacted []string
		ratings    map[string]storage.ResourceRating
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subject, err = s.dir.Get(studentID)
		if err != nil {
			return fmt.Errorf("loading student %s: %w", studentID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		resources, err = s.store.ListResources(0)
		if err != nil {
			return fmt.Errorf("loading resources: %w", err)
		}
		return gctx.Err()
	})
	g.Go(func() error {
		var err error
		interacted, err = s.store.InteractedResourceIDs(studentID)
		if err != nil {
			return fmt.Errorf("loading interactions: %w", err)
		}
		return gctx.Err()
	})
	g.Go(func() error {
		var err error
		ratings, err = s.store.ResourceRatings()
		if err != nil {
			return fmt.Errorf("loading ratings: %w", err)
		}
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	vec := matching.StudentResourceVector(profile.FromStudent(subject), interacted)
	matches, err := matching.RankVectors(vec, resources, resourceVector, s.opts.Resources)
	if err != nil {
		return nil, err
	}

	results = make([]ResourceRecommendation, 0, len(matches))
	for _, m := range matches {
		rec := ResourceRecommendation{Resource: m.Candidate, Score: roundScore(m.Score)}
		if r, ok := ratings[m.Candidate.ID]; ok {
			rec.AverageRating = math.Round(r.Average*10) / 10
			rec.RatingCount = r.Count
		}
		results = append(results, rec)
	}
	return results, nil
}

// Recommend returns both recommendation kinds for studentID.
func (s *Service) Recommend(ctx context.Context, studentID string) (Recommendations, error) {
	groups, err := s.RecommendGroups(ctx, studentID)
	if err != nil {
		return Recommendations{}, err
	}
	resources, err := s.RecommendResources(ctx, studentID)
	if err != nil {
		return Recommendations{}, err
	}
	return Recommendations{Groups: groups, Resources: resources}, nil
}

// recordHistory stores one history row per match with the unrounded score.
// Each row gets its ID here, so a queued write that is retried lands once.
// Failures are logged and counted only.
func (s *Service) recordHistory(subjectID string, matches []matching.Match[storage.Student], results []PartnerMatch) {
	now := time.Now().UTC()
	for i, m := range matches {
		h := storage.MatchHistory{
			ID:                 uuid.New().String(),
			StudentA:           subjectID,
			StudentB:           m.Candidate.ID,
			CompatibilityScore: m.Score,
			MatchedSubjects:    results[i].MatchedSubjects,
			MatchedAt:          now,
		}

		write, outcome := s.store.SaveMatchHistory, "written"
		if s.queue != nil {
			write, outcome = s.queue.EnqueueMatchHistory, "enqueued"
		}
		if err := write(h); err != nil {
			metrics.RecordHistoryWrite("failed")
			s.logger.Warn("failed to record match history", "student_a", subjectID, "student_b", m.Candidate.ID, "queued", s.queue != nil, "error", err)
			continue
		}
		metrics.RecordHistoryWrite(outcome)
	}
}

func studentVector(st storage.Student) matching.Vector {
	return matching.PersonVector(profile.FromStudent(st))
}

func groupVector(g storage.StudyGroup) matching.Vector {
	return matching.GroupVector(matching.Group{Subject: g.Subject, AcademicLevel: g.AcademicLevel})
}

func resourceVector(r storage.Resource) matching.Vector {
	return matching.ResourceVector(matching.Resource{SubjectTags: r.SubjectTags})
}

func roundScore(score float64) float64 {
	return math.Round(score*100) / 100
}

func record(kind string, n int, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, matching.ErrInvalidOptions):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	metrics.RecordMatch(kind, outcome, n, time.Since(start))
}
