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
	"sort"

	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/evaluate/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

/* Evaluate Item Ranking */

// ScoreFunc is used by evaluators in personalized ranking tasks. rankList holds
// the top-k items of a user, an empty string marks a rank without item.
type ScoreFunc func(targetSet mapset.Set[string], rankList []string) float32

// Evaluate scores the top-k recommendations of every user in interactions and
// returns the mean of each scorer. Users without recommendations contribute
// zero hits. Recommended users absent from interactions are ignored.
func Evaluate(reco *dataset.Recommendations, interactions *dataset.Interactions, k int, scorers ...ScoreFunc) []float32 {
	userItems := interactions.UserItems()
	if len(userItems) == 0 {
		return make([]float32, len(scorers))
	}
	rankLists := reco.RankLists(k)
	emptyList := make([]string, k)
	users := lo.Keys(userItems)
	sort.Strings(users)
	sum := make([]float64, len(scorers))
	for _, userId := range users {
		rankList, ok := rankLists[userId]
		if !ok {
			rankList = emptyList
		}
		for i, scorer := range scorers {
			sum[i] += float64(scorer(userItems[userId], rankList))
		}
	}
	return lo.Map(sum, func(s float64, _ int) float32 {
		return float32(s / float64(len(users)))
	})
}

func discount(i int) float32 {
	return 1.0 / math32.Log2(float32(i)+2.0)
}

// NDCG means Normalized Discounted Cumulative Gain. The ideal ranking fills
// every position of the list with a relevant item.
func NDCG(targetSet mapset.Set[string], rankList []string) float32 {
	// IDCG = \sum^{N}_{i=1} \frac {1} {\log_2(i+1)}
	idcg := float32(0)
	for i := range rankList {
		idcg += discount(i)
	}
	return dcg(targetSet, rankList) / idcg
}

// AchievableNDCG is NDCG whose ideal ranking holds at most |REL| relevant items.
func AchievableNDCG(targetSet mapset.Set[string], rankList []string) float32 {
	// IDCG = \sum^{\min(|REL|,N)}_{i=1} \frac {1} {\log_2(i+1)}
	idcg := float32(0)
	for i := 0; i < targetSet.Cardinality() && i < len(rankList); i++ {
		idcg += discount(i)
	}
	return dcg(targetSet, rankList) / idcg
}

func dcg(targetSet mapset.Set[string], rankList []string) float32 {
	// DCG = \sum^{N}_{i=1} \frac {2^{rel_i}-1} {\log_2(i+1)}
	sum := float32(0)
	for i, itemId := range rankList {
		if targetSet.Contains(itemId) {
			sum += discount(i)
		}
	}
	return sum
}

// Precision is the fraction of relevant items among the recommended items.
//
//	\frac{|relevant documents| \cap |retrieved documents|} {|{retrieved documents}|}
func Precision(targetSet mapset.Set[string], rankList []string) float32 {
	hit := float32(0)
	for _, itemId := range rankList {
		if targetSet.Contains(itemId) {
			hit++
		}
	}
	return hit / float32(len(rankList))
}

// Recall is the fraction of relevant items that have been recommended over the total
// amount of relevant items.
//
//	\frac{|relevant documents| \cap |retrieved documents|} {|{relevant documents}|}
func Recall(targetSet mapset.Set[string], rankList []string) float32 {
	hit := 0
	for _, itemId := range rankList {
		if targetSet.Contains(itemId) {
			hit++
		}
	}
	return float32(hit) / float32(targetSet.Cardinality())
}

// HR means Hit Ratio.
func HR(targetSet mapset.Set[string], rankList []string) float32 {
	for _, itemId := range rankList {
		if targetSet.Contains(itemId) {
			return 1
		}
	}
	return 0
}

// MAP means Mean Average Precision.
// mAP: http://sdsawtelle.github.io/blog/output/mean-average-precision-MAP-for-recommender-systems.html
func MAP(targetSet mapset.Set[string], rankList []string) float32 {
	sumPrecision := float32(0)
	hit := 0
	for i, itemId := range rankList {
		if targetSet.Contains(itemId) {
			hit++
			sumPrecision += float32(hit) / float32(i+1)
		}
	}
	return sumPrecision / float32(targetSet.Cardinality())
}

// MRR means Mean Reciprocal Rank.
//
// The reciprocal rank of a query response is the multiplicative inverse of the
// rank of the first correct answer.
//
//	MRR = \frac{1}{Q} \sum^{|Q|}_{i=1} \frac{1}{rank_i}
func MRR(targetSet mapset.Set[string], rankList []string) float32 {
	for i, itemId := range rankList {
		if targetSet.Contains(itemId) {
			return 1 / float32(i+1)
		}
	}
	return 0
}

// Metric names accepted by NewMetric.
const (
	NamePrecision = "precision"
	NameNDCG      = "ndcg"
	NameRecall    = "recall"
	NameMAP       = "map"
	NameMRR       = "mrr"
	NameHR        = "hr"
)

// Names lists every supported metric.
var Names = []string{NamePrecision, NameNDCG, NameRecall, NameMAP, NameMRR, NameHR}

// Metric scores the recommendations of a fold against its interactions.
type Metric interface {
	Name() string
	K() int
	Score(reco *dataset.Recommendations, interactions *dataset.Interactions) float32
}

type rankingMetric struct {
	name   string
	k      int
	scorer ScoreFunc
}

func (m *rankingMetric) Name() string {
	return m.name
}

func (m *rankingMetric) K() int {
	return m.k
}

func (m *rankingMetric) Score(reco *dataset.Recommendations, interactions *dataset.Interactions) float32 {
	return Evaluate(reco, interactions, m.k, m.scorer)[0]
}

type metricOptions struct {
	divideByAchievable bool
}

type MetricOption func(*metricOptions)

// WithDivideByAchievable normalizes NDCG by the best ranking the relevant items
// of a user allow instead of a list full of relevant items.
func WithDivideByAchievable(enable bool) MetricOption {
	return func(o *metricOptions) {
		o.divideByAchievable = enable
	}
}

func NewPrecision(k int) Metric {
	return &rankingMetric{name: NamePrecision, k: k, scorer: Precision}
}

func NewNDCG(k int, opts ...MetricOption) Metric {
	options := &metricOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.divideByAchievable {
		return &rankingMetric{name: NameNDCG, k: k, scorer: AchievableNDCG}
	}
	return &rankingMetric{name: NameNDCG, k: k, scorer: NDCG}
}

// NewMetric creates a metric by name.
func NewMetric(name string, k int, opts ...MetricOption) (Metric, error) {
	if k <= 0 {
		return nil, errors.NotValidf("k = %d", k)
	}
	switch name {
	case NamePrecision:
		return NewPrecision(k), nil
	case NameNDCG:
		return NewNDCG(k, opts...), nil
	case NameRecall:
		return &rankingMetric{name: NameRecall, k: k, scorer: Recall}, nil
	case NameMAP:
		return &rankingMetric{name: NameMAP, k: k, scorer: MAP}, nil
	case NameMRR:
		return &rankingMetric{name: NameMRR, k: k, scorer: MRR}, nil
	case NameHR:
		return &rankingMetric{name: NameHR, k: k, scorer: HR}, nil
	default:
		return nil, errors.NotValidf("metric %q, supported metrics are %v", name, Names)
	}
}
