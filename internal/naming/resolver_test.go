package naming

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaver-logs/beaver/internal/platform/executor"
)

var candidatePattern = regexp.MustCompile(`^beaver_datalake_[a-z0-9]{9}$`)

// scriptedCreator fails the first len(failures) calls with the given errors.
type scriptedCreator struct {
	mu       sync.Mutex
	failures []error
	calls    []DatasetRef
}

func (s *scriptedCreator) CreateDataset(_ context.Context, ref DatasetRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, ref)
	if i := len(s.calls) - 1; i < len(s.failures) {
		return s.failures[i]
	}
	return nil
}

func collision() error {
	return &executor.CommandError{Tool: "bq", ExitCode: 1, Stderr: "BigQuery error in mk operation: Dataset already exists"}
}

func TestRandomSuffix(t *testing.T) {
	t.Parallel()
	for range 50 {
		assert.Regexp(t, candidatePattern, DatasetPrefix+RandomSuffix())
	}
}

func TestSeededSuffix_Reproducible(t *testing.T) {
	t.Parallel()
	a, b := SeededSuffix(42), SeededSuffix(42)
	for range 5 {
		assert.Equal(t, a(), b())
	}
}

func TestResolve_SucceedsAfterCollisions(t *testing.T) {
	t.Parallel()
	creator := &scriptedCreator{failures: []error{collision(), collision()}}
	var attempts int
	r := NewResolver(creator, logr.Discard())
	r.OnResolved = func(n int) { attempts = n }

	ref, err := r.Resolve(context.Background(), "acme")
	require.NoError(t, err)

	require.Len(t, creator.calls, 3)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, creator.calls[2], ref)
	assert.Equal(t, "acme", ref.Project)
	assert.Regexp(t, candidatePattern, ref.Dataset)
	assert.True(t, strings.HasPrefix(ref.String(), "acme:beaver_datalake_"))
	for _, c := range creator.calls {
		assert.Regexp(t, candidatePattern, c.Dataset)
	}
}

func TestResolve_NonCollisionIsNotRetried(t *testing.T) {
	t.Parallel()
	denied := &executor.CommandError{Tool: "bq", ExitCode: 1, Stderr: "Access Denied: Project acme"}
	creator := &scriptedCreator{failures: []error{denied}}
	r := NewResolver(creator, logr.Discard())

	_, err := r.Resolve(context.Background(), "acme")
	require.Error(t, err)

	assert.Len(t, creator.calls, 1)
	assert.False(t, errors.Is(err, ErrExhausted))
	var ce *executor.CommandError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Stderr, "Access Denied")
}

func TestResolve_Exhausted(t *testing.T) {
	t.Parallel()
	creator := &scriptedCreator{failures: []error{collision(), collision(), collision(), collision()}}
	r := NewResolver(creator, logr.Discard())
	r.MaxAttempts = 4

	_, err := r.Resolve(context.Background(), "acme")

	require.ErrorIs(t, err, ErrExhausted)
	assert.Len(t, creator.calls, 4)
}

func TestResolve_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	creator := &scriptedCreator{}

	_, err := NewResolver(creator, logr.Discard()).Resolve(ctx, "acme")

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, creator.calls)
}

func TestResolve_InjectedSuffix(t *testing.T) {
	t.Parallel()
	creator := &scriptedCreator{}
	r := NewResolver(creator, logr.Discard())
	r.Suffix = func() string { return "abc123xyz" }

	ref, err := r.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme:beaver_datalake_abc123xyz", ref.String())
}
