// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package evaluator

import (
	"context"

	"github.com/gorse-io/evaluate/common/parallel"
	"github.com/gorse-io/evaluate/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Fold pairs the recommendations of a fold with the held-out interactions of
// the same fold.
type Fold struct {
	Recommendations *dataset.Recommendations
	Interactions    *dataset.Interactions
}

// Result holds the scores of a metric, one per fold.
type Result struct {
	Metric string
	K      int
	Scores []float32
}

// MeanAndMargin returns the mean and the margin of cross validation scores.
func (r Result) MeanAndMargin() (float32, float32) {
	if len(r.Scores) == 0 {
		return 0, 0
	}
	mean := lo.Sum(r.Scores) / float32(len(r.Scores))
	margin := float32(0)
	for _, score := range r.Scores {
		margin = max(margin, abs(score-mean))
	}
	return mean, margin
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// CrossValidate scores every metric on every fold. Each (metric, fold) pair is
// a job of a pool of nJobs workers; results are returned in the order of
// metrics and folds.
func CrossValidate(ctx context.Context, folds []Fold, metrics []Metric, nJobs int) ([]Result, error) {
	results := lo.Map(metrics, func(metric Metric, _ int) Result {
		return Result{Metric: metric.Name(), K: metric.K(), Scores: make([]float32, len(folds))}
	})
	if len(folds) == 0 {
		return results, nil
	}
	err := parallel.Parallel(ctx, len(folds)*len(metrics), nJobs, func(_, jobId int) error {
		metricIndex, foldIndex := jobId/len(folds), jobId%len(folds)
		fold := folds[foldIndex]
		if fold.Recommendations == nil || fold.Interactions == nil {
			return errors.NotValidf("fold %d without data", foldIndex+1)
		}
		results[metricIndex].Scores[foldIndex] = metrics[metricIndex].Score(fold.Recommendations, fold.Interactions)
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return results, nil
}
