package naming

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-logr/logr"

	"github.com/beaver-logs/beaver/internal/platform/executor"
	"github.com/beaver-logs/beaver/internal/util/retry"
)

// ErrExhausted is returned when every dataset candidate collided.
var ErrExhausted = errors.New("dataset naming attempts exhausted")

const (
	suffixLength   = 9
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	// DefaultMaxAttempts bounds Resolve when the resolver leaves it unset.
	DefaultMaxAttempts = 10
)

// DatasetCreator creates a dataset. An "already exists" failure must be
// recognizable by executor.IsAlreadyExists.
type DatasetCreator interface {
	CreateDataset(ctx context.Context, ref DatasetRef) error
}

// SuffixFunc returns a fresh candidate suffix.
type SuffixFunc func() string

// RandomSuffix draws 9 characters uniformly from [a-z0-9].
func RandomSuffix() string {
	return suffixFrom(rand.IntN)
}

// SeededSuffix returns a reproducible SuffixFunc for tests and dry runs.
func SeededSuffix(seed uint64) SuffixFunc {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func() string {
		return suffixFrom(r.IntN)
	}
}

func suffixFrom(intN func(int) int) string {
	b := make([]byte, suffixLength)
	for i := range b {
		b[i] = suffixAlphabet[intN(len(suffixAlphabet))]
	}
	return string(b)
}

// Resolver finds a free dataset name by creating candidates until one
// succeeds. The successful creation is the dataset itself.
type Resolver struct {
	Creator     DatasetCreator
	Suffix      SuffixFunc
	MaxAttempts int
	Delay       time.Duration
	Log         logr.Logger

	// OnResolved receives the number of candidates tried, success or not.
	OnResolved func(attempts int)
}

// NewResolver creates a resolver with the default attempt bound.
func NewResolver(creator DatasetCreator, log logr.Logger) *Resolver {
	return &Resolver{
		Creator:     creator,
		Suffix:      RandomSuffix,
		MaxAttempts: DefaultMaxAttempts,
		Log:         log,
	}
}

// Resolve creates a dataset named beaver_datalake_<suffix> in project.
//
// Only collisions are retried. Any other creation failure is returned as is;
// running out of attempts returns an error wrapping ErrExhausted.
func (r *Resolver) Resolve(ctx context.Context, project string) (DatasetRef, error) {
	suffix := r.Suffix
	if suffix == nil {
		suffix = RandomSuffix
	}
	maxAttempts := r.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	var (
		resolved DatasetRef
		tried    int
	)
	err := retry.Do(ctx, func(attempt int) error {
		tried = attempt
		candidate := DatasetRef{Project: project, Dataset: DatasetPrefix + suffix()}

		err := r.Creator.CreateDataset(ctx, candidate)
		if err == nil {
			resolved = candidate
			return nil
		}
		if executor.IsAlreadyExists(err) {
			return fmt.Errorf("dataset %s: %w", candidate, err)
		}
		return retry.Fatal(err)
	},
		retry.WithMaxAttempts(maxAttempts),
		retry.WithDelay(r.Delay),
		retry.WithOnRetry(func(attempt int, err error) {
			r.Log.V(1).Info("dataset name taken", "attempt", attempt, "reason", err.Error())
		}),
	)

	if r.OnResolved != nil {
		r.OnResolved(tried)
	}

	switch {
	case err == nil:
		r.Log.Info("dataset created", "dataset", resolved.String(), "attempts", tried)
		return resolved, nil
	case retry.IsExhausted(err):
		return DatasetRef{}, fmt.Errorf("%w: %d candidates in project %s: %w", ErrExhausted, maxAttempts, project, err)
	default:
		return DatasetRef{}, fmt.Errorf("failed to create dataset in project %s: %w", project, err)
	}
}
