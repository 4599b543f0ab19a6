package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/socgpa/pkg/logger"
	"github.com/okian/socgpa/pkg/metrics"
)

// ProviderOpenRouterName is the Config.Provider value that enables the
// remote strategy.
const ProviderOpenRouterName = "openrouter"

// Config decides at construction time whether remote classification runs.
type Config struct {
	Provider string
	APIKey   string
}

// RemoteEnabled reports whether the remote strategy should be attempted.
// A missing key forces local-only operation regardless of Provider.
func (c Config) RemoteEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(c.Provider), ProviderOpenRouterName) && c.APIKey != ""
}

// Mode describes the configured pipeline for stats output.
func (c Config) Mode() string {
	if c.RemoteEnabled() {
		return ProviderOpenRouterName
	}
	return "local"
}

// AnalyzerOption applies a configuration option to the Analyzer.
type AnalyzerOption func(*Analyzer)

// WithLogger sets the logger used for strategy failures.
func WithLogger(l logger.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

// WithProofRoot confines proof attachments to dir. Without it no proof file
// is ever read.
func WithProofRoot(dir string) AnalyzerOption {
	return func(a *Analyzer) {
		a.proofs.root = dir
	}
}

// WithMaxProofBytes overrides DefaultMaxProofBytes.
func WithMaxProofBytes(n int64) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.proofs.maxBytes = n
		}
	}
}

// WithStrategies replaces the strategy chain. SafeMinimal still closes it.
func WithStrategies(strategies ...Strategy) AnalyzerOption {
	return func(a *Analyzer) {
		a.strategies = strategies
	}
}

// Analyzer is the classification entry point. It holds no per-call state
// and is safe for concurrent use.
type Analyzer struct {
	strategies []Strategy
	proofs     proofLoader
	wantsProof bool
	log        logger.Logger
}

// NewAnalyzer builds the strategy chain: remote (when enabled and non-nil)
// followed by Local.
func NewAnalyzer(cfg Config, remote Strategy, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		proofs: proofLoader{maxBytes: DefaultMaxProofBytes},
		log:    logger.Nop(),
	}
	if cfg.RemoteEnabled() && remote != nil {
		a.strategies = append(a.strategies, remote)
	}
	a.strategies = append(a.strategies, LocalStrategy{})

	for _, opt := range opts {
		opt(a)
	}

	// Only strategies other than Local consume the attachment.
	for _, s := range a.strategies {
		if _, local := s.(LocalStrategy); !local {
			a.wantsProof = true
			break
		}
	}
	return a
}

// Strategies returns the names of the configured strategies in order.
func (a *Analyzer) Strategies() []string {
	names := make([]string, len(a.strategies))
	for i, s := range a.strategies {
		names[i] = s.Name()
	}
	return names
}

// Analyze classifies req with the first strategy that succeeds. It never
// fails: when every strategy errors or panics, SafeMinimal is returned.
func (a *Analyzer) Analyze(ctx context.Context, req Request) Result {
	in := Input{Request: req, EncodedProof: a.encodeProof(ctx, req.ProofPath)}

	for _, s := range a.strategies {
		res, err := a.attempt(ctx, s, in)
		if err == nil {
			metrics.RecordClassification(string(res.Provider))
			return res
		}
		metrics.RecordStrategyFailure(s.Name(), failureReason(err))
		a.log.Warn(ctx, "classification strategy failed, falling back",
			logger.String("strategy", s.Name()),
			logger.Error(err),
		)
	}

	res := SafeMinimal(req.CategoryHint)
	metrics.RecordClassification(string(res.Provider))
	return res
}

func (a *Analyzer) attempt(ctx context.Context, s Strategy, in Input) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrStrategyPanic, s.Name(), r)
		}
	}()
	return s.Classify(ctx, in)
}

// encodeProof returns the base64 proof for remote strategies, or "" when
// no strategy needs it or the file is rejected.
func (a *Analyzer) encodeProof(ctx context.Context, path string) string {
	if path == "" || !a.wantsProof {
		return ""
	}
	encoded, err := a.proofs.encode(path)
	if err != nil {
		a.log.Warn(ctx, "proof attachment skipped",
			logger.String("path", path),
			logger.Error(err),
		)
		return ""
	}
	return encoded
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return "missing_api_key"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrRemoteStatus):
		return "status"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrStrategyPanic):
		return "panic"
	default:
		return "error"
	}
}
