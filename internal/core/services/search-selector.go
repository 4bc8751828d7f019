package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"mlflow-registry-workflow/internal/core/domain"
	ports "mlflow-registry-workflow/internal/core/ports/output"
)

const defaultSweepSearchSize = 50

// SearchSelector picks the best run of a hyperparameter sweep.
type SearchSelector struct {
	store ports.RunStore
}

func NewSearchSelector(store ports.RunStore) *SearchSelector {
	return &SearchSelector{store: store}
}

// SelectBest returns the single run the configured strategy judges best.
// It never falls back to a default: no match is ErrRunNotFound.
func (s *SearchSelector) SelectBest(ctx context.Context, experimentID string, c domain.SearchCriteria) (*domain.Run, error) {
	if c.Strategy == "" {
		c.Strategy = domain.StrategyScoreOrdered
	}

	logger := log.WithFields(log.Fields{
		"experiment_id": experimentID,
		"strategy":      c.Strategy,
	})

	var (
		run *domain.Run
		err error
	)
	switch c.Strategy {
	case domain.StrategyScoreOrdered:
		run, err = s.selectByScore(ctx, experimentID, c)
	case domain.StrategyTagMatched:
		run, err = s.selectByBestParams(ctx, experimentID, c)
	case domain.StrategyLatestFinished:
		run, err = s.selectLatestFinished(ctx, experimentID)
	default:
		return nil, fmt.Errorf("%q: %w", c.Strategy, domain.ErrInvalidStrategy)
	}
	if err != nil {
		return nil, err
	}

	logger.WithField("run_id", run.ID).Info("best run selected")
	return run, nil
}

func (s *SearchSelector) selectByScore(ctx context.Context, experimentID string, c domain.SearchCriteria) (*domain.Run, error) {
	metric := c.Metric
	if metric == "" {
		metric = domain.DefaultSelectionMetric
	}

	search := ports.RunSearch{
		ExperimentIDs: []string{experimentID},
		OrderBy:       []string{fmt.Sprintf("metrics.%s ASC", metric)},
		MaxResults:    1,
	}
	if c.ParentRunID != "" {
		search.Filter = childrenOf(c.ParentRunID)
	}

	runs, err := s.store.SearchRuns(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("search runs by %s: %w", metric, err)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no run with metric %q in experiment %s: %w", metric, experimentID, domain.ErrRunNotFound)
	}
	return runs[0], nil
}

func (s *SearchSelector) selectByBestParams(ctx context.Context, experimentID string, c domain.SearchCriteria) (*domain.Run, error) {
	maxResults := c.MaxResults
	if maxResults <= 0 {
		maxResults = defaultSweepSearchSize
	}

	search := ports.RunSearch{
		ExperimentIDs: []string{experimentID},
		MaxResults:    maxResults,
	}
	if c.ParentRunID != "" {
		search.Filter = childrenOf(c.ParentRunID)
	}
	runs, err := s.store.SearchRuns(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("search sweep runs: %w", err)
	}

	parent, err := s.findParent(ctx, runs, c)
	if err != nil {
		return nil, err
	}

	tracked := c.Hyperparameters
	if len(tracked) == 0 {
		tracked = bestParamNames(parent)
	}
	if len(tracked) == 0 {
		return nil, fmt.Errorf("parent run %s has no best_* params: %w", parent.ID, domain.ErrRunNotFound)
	}

	best := make(map[string]string, len(tracked))
	for _, name := range tracked {
		v, ok := parent.BestParam(name)
		if !ok {
			return nil, fmt.Errorf("parent run %s lacks %s%s: %w", parent.ID, domain.BestParamPrefix, name, domain.ErrRunNotFound)
		}
		best[name] = v
	}

	// First child in search order wins. Repeated sweeps with a fixed seed
	// share param sets, so only the parent's own children qualify.
	for _, run := range runs {
		if run.ParentRunID() != parent.ID {
			continue
		}
		if paramsMatch(run, best) {
			return run, nil
		}
	}

	return nil, fmt.Errorf("no child of run %s matches its best params: %w", parent.ID, domain.ErrRunNotFound)
}

func (s *SearchSelector) findParent(ctx context.Context, runs []*domain.Run, c domain.SearchCriteria) (*domain.Run, error) {
	if c.ParentRunID != "" {
		for _, run := range runs {
			if run.ID == c.ParentRunID {
				return run, nil
			}
		}
		return s.store.GetRun(ctx, c.ParentRunID)
	}

	for _, run := range runs {
		if isSweepParent(run, c.Hyperparameters) {
			return run, nil
		}
	}
	return nil, fmt.Errorf("no sweep parent run: %w", domain.ErrRunNotFound)
}

func (s *SearchSelector) selectLatestFinished(ctx context.Context, experimentID string) (*domain.Run, error) {
	runs, err := s.store.SearchRuns(ctx, ports.RunSearch{
		ExperimentIDs: []string{experimentID},
		Filter:        fmt.Sprintf("status = '%s'", domain.RunStatusFinished),
		OrderBy:       []string{"start_time DESC"},
		MaxResults:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("search finished runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no successful runs in experiment %s: %w", experimentID, domain.ErrRunNotFound)
	}
	return runs[0], nil
}

// FindRunByName looks a run up by its mlflow.runName tag.
func (s *SearchSelector) FindRunByName(ctx context.Context, experimentID, runName string) (*domain.Run, error) {
	runs, err := s.store.SearchRuns(ctx, ports.RunSearch{
		ExperimentIDs: []string{experimentID},
		Filter:        fmt.Sprintf("tags.%s = '%s'", domain.TagRunName, quoteFilterValue(runName)),
		MaxResults:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("search run %q: %w", runName, err)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("run %q in experiment %s: %w", runName, experimentID, domain.ErrRunNotFound)
	}
	return runs[0], nil
}

// Summarize renders the sweep summary for the chosen run.
func (s *SearchSelector) Summarize(experimentName string, run *domain.Run, hyperparameters []string) string {
	if len(hyperparameters) == 0 {
		hyperparameters = domain.DefaultHyperparameters
	}

	var b strings.Builder
	b.WriteString("Trials Summary:\n")
	b.WriteString("---------------------------\n")
	fmt.Fprintf(&b, "Experiment: %s\n", experimentName)
	fmt.Fprintf(&b, "Best Run: %s (%s)\n\n", run.DisplayName(), run.ID)
	b.WriteString("Best Model Parameters:\n")
	for _, name := range hyperparameters {
		v, ok := run.Params[name]
		if !ok {
			v = "n/a"
		}
		fmt.Fprintf(&b, "  %s: %s\n", name, v)
	}

	if len(run.Metrics) > 0 {
		b.WriteString("\nMetrics:\n")
		keys := make([]string, 0, len(run.Metrics))
		for k := range run.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %.4f\n", k, run.Metrics[k])
		}
	}
	return b.String()
}

// LogSummary stores summary as summary_<strategy>.txt on the sweep parent:
// parentRunID when given, else the run's parent, else the run itself. It
// returns the run the artifact was written to.
func (s *SearchSelector) LogSummary(ctx context.Context, run *domain.Run, parentRunID string, strategy domain.SelectionStrategy, summary string) (string, error) {
	target := parentRunID
	if target == "" {
		target = run.ParentRunID()
	}
	if target == "" {
		target = run.ID
	}

	name := fmt.Sprintf("summary_%s.txt", strategy)
	if err := s.store.LogArtifact(ctx, target, name, []byte(summary)); err != nil {
		return "", fmt.Errorf("log %s: %w", name, err)
	}
	log.WithFields(log.Fields{
		"run_id":   target,
		"artifact": name,
	}).Info("sweep summary logged")
	return target, nil
}

func childrenOf(parentRunID string) string {
	return fmt.Sprintf("tags.%s = '%s'", domain.TagParentRunID, quoteFilterValue(parentRunID))
}

// quoteFilterValue escapes single quotes for a search filter literal.
func quoteFilterValue(v string) string {
	return strings.ReplaceAll(v, "'", "\\'")
}

func isSweepParent(run *domain.Run, tracked []string) bool {
	if len(tracked) == 0 {
		return len(bestParamNames(run)) > 0
	}
	for _, name := range tracked {
		if _, ok := run.BestParam(name); !ok {
			return false
		}
	}
	return true
}

func bestParamNames(run *domain.Run) []string {
	var names []string
	for k := range run.Params {
		if name, ok := strings.CutPrefix(k, domain.BestParamPrefix); ok && name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func paramsMatch(run *domain.Run, want map[string]string) bool {
	for name, v := range want {
		got, ok := run.Params[name]
		if !ok || got != v {
			return false
		}
	}
	return true
}
