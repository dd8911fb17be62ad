package ranking

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/NegroHm/uda-apuntes/internal/drive"
	"github.com/NegroHm/uda-apuntes/internal/logging"
)

// Aggregator reduces a career folder's subtree to a CareerStat.
type Aggregator struct {
	walker  *Walker
	weights Weights
}

// NewAggregator creates an aggregator over the given lister.
func NewAggregator(lister drive.Lister, weights Weights, maxDepth, concurrency int) *Aggregator {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Aggregator{
		walker:  NewWalker(lister, maxDepth, concurrency),
		weights: weights,
	}
}

// Aggregate walks the entire career subtree, classifying and scoring every
// file. A career whose root folder cannot be listed yields a zero-valued
// stat rather than an error, so one broken career never blocks the others.
func (a *Aggregator) Aggregate(ctx context.Context, career CareerFolder) CareerStat {
	stat := CareerStat{
		ID:          career.ID,
		Name:        career.Name,
		FacultyName: career.FacultyName,
		Icon:        career.Icon,
	}

	var mu sync.Mutex
	visit := func(e drive.Entry) {
		category := Classify(e)
		mu.Lock()
		stat.TotalFiles++
		stat.TotalScore += a.weights.Score(category)
		stat.FileTypes.Add(category)
		mu.Unlock()
	}

	folders, err := a.walker.Walk(ctx, career.ID, career.Name, visit)
	if err != nil {
		logging.Warn("career aggregation failed, scoring as zero",
			zap.String("career", career.Name),
			zap.Error(err))
		return CareerStat{
			ID:          career.ID,
			Name:        career.Name,
			FacultyName: career.FacultyName,
			Icon:        career.Icon,
		}
	}
	stat.FoldersProcessed = folders

	logging.Info("career aggregated",
		zap.String("career", career.Name),
		zap.Int("files", stat.TotalFiles),
		zap.Int("score", stat.TotalScore),
		zap.Int("folders", stat.FoldersProcessed))
	return stat
}
