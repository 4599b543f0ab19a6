// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"gorm.io/datatypes"

	repository "github.com/okian/socgpa/internal/adapters/repository"
	"github.com/okian/socgpa/internal/domain/classify"
	"github.com/okian/socgpa/internal/domain/model"
	"github.com/okian/socgpa/internal/domain/scoring"
	"github.com/okian/socgpa/internal/domain/types"
	"github.com/okian/socgpa/pkg/logger"
	"github.com/okian/socgpa/pkg/metrics"
)

// Score report constants.
const (
	maxDisplayGPA      = 40.0
	minCoinsEarned     = 10
	maxRecommendations = 3
	recentLimit        = 5
	defaultDBPath      = "data/socgpa.db"
)

// milestones are Social GPA reward tiers measured against total points.
var milestones = []types.Milestone{ //nolint:gochecknoglobals // fixed reward table
	{Threshold: 50, Reward: "100 SocCoins"},
	{Threshold: 150, Reward: "20% off IELTS course"},
	{Threshold: 300, Reward: "30% off SAT course"},
	{Threshold: 600, Reward: "Mentor session"},
	{Threshold: 1000, Reward: "Premium badge"},
}

// Analyzer classifies achievements. *classify.Analyzer implements it.
type Analyzer interface {
	Analyze(ctx context.Context, req classify.Request) classify.Result
}

// Service implements the API dependencies for SocGPA.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	ownsStore  bool
	analyzer   Analyzer
	aggregator *scoring.Aggregator
	remote     classify.Strategy

	// Configuration
	dbPath        string
	classifierCfg classify.Config
	proofRoot     string
	maxProofBytes int64
	now           func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects a store. The service does not close injected stores.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDatabasePath sets the SQLite file opened on Start when no store is injected.
func WithDatabasePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithAnalyzer injects a classifier, replacing the one built on Start.
func WithAnalyzer(a Analyzer) Option {
	return func(s *Service) {
		if a != nil {
			s.analyzer = a
		}
	}
}

// WithClassifierConfig sets the remote classification switch and credential.
func WithClassifierConfig(cfg classify.Config) Option {
	return func(s *Service) {
		s.classifierCfg = cfg
	}
}

// WithRemoteClassifier sets the remote strategy used when the classifier
// config enables it.
func WithRemoteClassifier(remote classify.Strategy) Option {
	return func(s *Service) {
		if remote != nil {
			s.remote = remote
		}
	}
}

// WithProofRoot sets the directory proof attachments must live in. Without
// it proofs are never read.
func WithProofRoot(dir string) Option {
	return func(s *Service) {
		s.proofRoot = dir
	}
}

// WithMaxProofBytes caps the proof size forwarded to the remote classifier.
func WithMaxProofBytes(n int64) Option {
	return func(s *Service) {
		s.maxProofBytes = n
	}
}

// WithAggregator sets the Social GPA aggregator.
func WithAggregator(a *scoring.Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithClock overrides the time source for the aggregator's recency window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:        defaultDBPath,
		classifierCfg: classify.Config{Provider: "local"},
		now:           time.Now,
		logger:        nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store and builds the classifier pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting socgpa service...")

	if s.store == nil {
		store, err := repository.NewSQLiteStore(s.dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.ownsStore = true
		s.logger.Info(ctx, "using sqlite store", logger.String("path", s.dbPath))
	}

	if s.analyzer == nil {
		analyzer := classify.NewAnalyzer(s.classifierCfg, s.remote,
			classify.WithLogger(s.logger.Named("classify")),
			classify.WithProofRoot(s.proofRoot),
			classify.WithMaxProofBytes(s.maxProofBytes),
		)
		s.analyzer = analyzer
		s.logger.Info(ctx, "classifier pipeline ready",
			logger.Any("strategies", analyzer.Strategies()),
		)
	}

	if s.aggregator == nil {
		s.aggregator = scoring.NewAggregator(scoring.WithClock(s.now))
	}

	s.started = true
	s.logger.Info(ctx, "socgpa service started",
		logger.String("classifier", s.classifierCfg.Mode()),
	)

	return nil
}

// Stop releases resources opened by Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping socgpa service...")

	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing store failed", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(context.Background(), "socgpa service stopped")
}

func (s *Service) deps() (repository.Store, Analyzer, *scoring.Aggregator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, nil, ErrNotStarted
	}
	return s.store, s.analyzer, s.aggregator, nil
}

// SubmitAchievement stores, classifies and approves a new achievement and
// credits SocCoins to its owner.
func (s *Service) SubmitAchievement(ctx context.Context, sub types.Submission) (types.SubmissionResult, error) {
	store, analyzer, _, err := s.deps()
	if err != nil {
		return types.SubmissionResult{}, err
	}
	if err := sub.Validate(); err != nil {
		return types.SubmissionResult{}, err
	}

	user, err := store.UpsertUser(ctx, sub.UserID, sub.FullName)
	if err != nil {
		return types.SubmissionResult{}, fmt.Errorf("upsert user: %w", err)
	}

	hint := sub.CategoryHint()
	category := hint
	if category == "" {
		category = model.CategoryOther
	}

	a := &model.Achievement{
		UserID:      user.ID,
		Title:       sub.Title,
		Description: sub.Description,
		Category:    category,
		Scale:       model.ScaleSchool,
		Role:        model.RoleParticipant,
		ProofFile:   sub.ProofPath,
		Status:      model.StatusPending,
	}
	if err := store.CreateAchievement(ctx, a); err != nil {
		return types.SubmissionResult{}, fmt.Errorf("create achievement: %w", err)
	}

	approved, err := store.ApprovedByUser(ctx, user.ID)
	if err != nil {
		s.discardPending(ctx, store, a.ID)
		return types.SubmissionResult{}, fmt.Errorf("load profile: %w", err)
	}
	profile := model.BuildProfileSummary(approved, a.ID)

	res := analyzer.Analyze(ctx, classify.Request{
		StudentName:  displayName(user),
		Title:        a.Title,
		CategoryHint: hint,
		Description:  a.Description,
		ProofPath:    a.ProofFile,
		Profile:      &profile,
	})

	raw, err := json.Marshal(res)
	if err != nil {
		s.discardPending(ctx, store, a.ID)
		return types.SubmissionResult{}, fmt.Errorf("encode classification: %w", err)
	}

	a.Category = res.Category
	a.Scale = res.Scale
	a.Role = res.Role
	a.DurationMonths = res.DurationMonths
	a.AIRawResponse = datatypes.JSON(raw)
	a.Status = model.StatusApproved

	coins := coinsFor(res.TotalScore)
	if err := store.SaveClassified(ctx, a, coins); err != nil {
		s.discardPending(ctx, store, a.ID)
		return types.SubmissionResult{}, fmt.Errorf("save classified achievement: %w", err)
	}

	metrics.RecordAchievementSubmitted()
	metrics.RecordCoinsAwarded(coins)
	s.logger.Info(ctx, "achievement classified",
		logger.String("achievement_id", a.ID),
		logger.String("user_id", a.UserID),
		logger.String("provider", string(res.Provider)),
		logger.Float64("total_score", res.TotalScore),
		logger.Int64("coins", coins),
	)

	return types.SubmissionResult{Achievement: *a, Classification: res, CoinsEarned: coins}, nil
}

// discardPending removes a record left pending by a failed submission. It
// runs even when ctx is already canceled.
func (s *Service) discardPending(ctx context.Context, store repository.Store, id string) {
	if err := store.DeleteAchievement(context.WithoutCancel(ctx), id); err != nil {
		s.logger.Warn(ctx, "discarding pending achievement failed",
			logger.String("achievement_id", id),
			logger.Error(err),
		)
	}
}

// Classify runs the classifier without persisting anything.
func (s *Service) Classify(ctx context.Context, sub types.Submission) (classify.Result, error) {
	store, analyzer, _, err := s.deps()
	if err != nil {
		return classify.Result{}, err
	}
	if err := sub.ValidateTitle(); err != nil {
		return classify.Result{}, err
	}

	name := sub.FullName
	var profile *model.ProfileSummary
	if sub.UserID != "" {
		if user, err := store.GetUser(ctx, sub.UserID); err == nil && name == "" {
			name = displayName(user)
		}
		approved, err := store.ApprovedByUser(ctx, sub.UserID)
		if err != nil {
			return classify.Result{}, fmt.Errorf("load profile: %w", err)
		}
		summary := model.BuildProfileSummary(approved, "")
		profile = &summary
	}

	return analyzer.Analyze(ctx, classify.Request{
		StudentName:  name,
		Title:        sub.Title,
		CategoryHint: sub.CategoryHint(),
		Description:  sub.Description,
		ProofPath:    sub.ProofPath,
		Profile:      profile,
	}), nil
}

// Achievement returns one stored achievement.
func (s *Service) Achievement(ctx context.Context, id string) (model.Achievement, error) {
	store, _, _, err := s.deps()
	if err != nil {
		return model.Achievement{}, err
	}
	return store.GetAchievement(ctx, id)
}

// SocialScore computes the user's Social GPA report.
func (s *Service) SocialScore(ctx context.Context, userID string) (types.ScoreReport, error) {
	store, _, aggregator, err := s.deps()
	if err != nil {
		return types.ScoreReport{}, err
	}

	user, err := store.GetUser(ctx, userID)
	if err != nil {
		return types.ScoreReport{}, err
	}
	approved, err := store.ApprovedByUser(ctx, userID)
	if err != nil {
		return types.ScoreReport{}, fmt.Errorf("load achievements: %w", err)
	}

	raw, gpa := aggregator.Compute(scoring.FromAchievements(approved))
	metrics.RecordScoreComputation(gpa)

	totalPoints := 0.0
	for i := range approved {
		totalPoints += approved[i].TotalPoints
	}
	totalPoints = math.Round(totalPoints*100) / 100

	newestFirst := make([]model.Achievement, len(approved))
	for i := range approved {
		newestFirst[len(approved)-1-i] = approved[i]
	}

	report := types.ScoreReport{
		UserID:          user.ID,
		FullName:        user.FullName,
		RawScore:        math.Round(raw*10) / 10,
		SocialGPA:       gpa,
		TotalPoints:     totalPoints,
		ProgressPercent: progressPercent(gpa),
		Recommendations: collectRecommendations(newestFirst),
		Milestones:      milestonesFor(totalPoints),
		SocCoins:        user.SocCoins,
		ApprovedCount:   len(approved),
		Recent:          newestFirst[:min(recentLimit, len(newestFirst))],
	}
	return report, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":    s.started,
		"classifier": s.classifierCfg.Mode(),
	}

	if s.started {
		if a, ok := s.analyzer.(*classify.Analyzer); ok {
			stats["strategies"] = a.Strategies()
		}
		if n, err := s.store.CountAchievements(ctx); err == nil {
			stats["totalAchievements"] = n
			metrics.UpdateTotalAchievements(n)
		}
		if n, err := s.store.CountUsers(ctx); err == nil {
			stats["totalUsers"] = n
			metrics.UpdateTotalUsers(n)
		}
	}

	return stats
}

func displayName(u model.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.ID
}

// coinsFor truncates the total score toward zero, bounded to
// [10, classify.MaxTotalScore].
func coinsFor(totalScore float64) int64 {
	if math.IsNaN(totalScore) || totalScore < minCoinsEarned {
		return minCoinsEarned
	}
	return int64(min(totalScore, classify.MaxTotalScore))
}

func progressPercent(gpa float64) int {
	return int(math.Min(gpa/maxDisplayGPA*100, 100))
}

func collectRecommendations(newestFirst []model.Achievement) []string {
	seen := make(map[string]struct{})
	recs := make([]string, 0, maxRecommendations)
	for i := range newestFirst {
		if len(newestFirst[i].AIRawResponse) == 0 {
			continue
		}
		var stored struct {
			MissingRecommendations []string `json:"missing_recommendations"`
		}
		if err := json.Unmarshal(newestFirst[i].AIRawResponse, &stored); err != nil {
			continue
		}
		for _, r := range stored.MissingRecommendations {
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			recs = append(recs, r)
			if len(recs) == maxRecommendations {
				return recs
			}
		}
	}
	return recs
}

func milestonesFor(totalPoints float64) []types.Milestone {
	out := make([]types.Milestone, len(milestones))
	for i, m := range milestones {
		m.Reached = totalPoints >= m.Threshold
		out[i] = m
	}
	return out
}
