package domain

// SelectionStrategy picks the best child run of a sweep.
type SelectionStrategy string

const (
	// StrategyScoreOrdered takes the top run ordered by a metric, lower first.
	StrategyScoreOrdered SelectionStrategy = "score-ordered"
	// StrategyTagMatched matches child params against the parent's best_* params.
	StrategyTagMatched SelectionStrategy = "tag-matched"
	// StrategyLatestFinished takes the newest FINISHED run.
	StrategyLatestFinished SelectionStrategy = "latest-finished"
)

// IsValid checks if the strategy is known
func (s SelectionStrategy) IsValid() bool {
	switch s {
	case StrategyScoreOrdered, StrategyTagMatched, StrategyLatestFinished:
		return true
	}
	return false
}

// DefaultHyperparameters are the random forest params the sweeps track.
var DefaultHyperparameters = []string{
	"n_estimators",
	"max_depth",
	"min_samples_split",
	"min_samples_leaf",
}

const DefaultSelectionMetric = "rmse"

// SearchCriteria configures SearchSelector.
type SearchCriteria struct {
	Strategy        SelectionStrategy
	Metric          string
	Hyperparameters []string
	ParentRunID     string
	MaxResults      int
}

// ServeSpec is what a model server needs to host one registered version.
type ServeSpec struct {
	ModelName  string
	Version    string
	ModelURI   string
	Source     string
	Host       string
	Port       int
	EnvManager string
}
