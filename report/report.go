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

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorse-io/evaluate/evaluator"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
)

var labels = map[string]string{
	evaluator.NamePrecision: "Acc",
	evaluator.NameNDCG:      "NDCG",
	evaluator.NameRecall:    "Recall",
	evaluator.NameMAP:       "MAP",
	evaluator.NameMRR:       "MRR",
	evaluator.NameHR:        "HR",
}

// Label returns the name a metric is printed under.
func Label(metric string) string {
	if label, ok := labels[metric]; ok {
		return label
	}
	return strings.ToUpper(metric)
}

// Reporter writes cross validation results.
type Reporter interface {
	Report(w io.Writer, results []evaluator.Result) error
}

// NewReporter creates a reporter for a format.
func NewReporter(format string) (Reporter, error) {
	switch format {
	case FormatText:
		return TextReporter{}, nil
	case FormatTable:
		return TableReporter{}, nil
	case FormatJSON:
		return JSONReporter{}, nil
	default:
		return nil, errors.NotValidf("report format %q", format)
	}
}

// TextReporter prints one line per fold for each metric:
//
//	fold=1, Acc: 0.3512
type TextReporter struct{}

func (TextReporter) Report(w io.Writer, results []evaluator.Result) error {
	for _, result := range results {
		for i, score := range result.Scores {
			if _, err := fmt.Fprintf(w, "fold=%d, %s: %0.4f\n", i+1, Label(result.Metric), score); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return nil
}

// TableReporter renders a grid with a row per metric and a column per fold.
type TableReporter struct{}

func (TableReporter) Report(w io.Writer, results []evaluator.Result) error {
	numFolds := lo.Max(lo.Map(results, func(result evaluator.Result, _ int) int {
		return len(result.Scores)
	}))
	header := []string{"Metric"}
	for i := 0; i < numFolds; i++ {
		header = append(header, fmt.Sprintf("Fold %d", i+1))
	}
	header = append(header, "Mean")
	table := tablewriter.NewWriter(w)
	table.Header(lo.ToAnySlice(header)...)
	for _, result := range results {
		row := []string{fmt.Sprintf("%s@%d", Label(result.Metric), result.K)}
		for i := 0; i < numFolds; i++ {
			if i < len(result.Scores) {
				row = append(row, fmt.Sprintf("%.4f", result.Scores[i]))
			} else {
				row = append(row, "")
			}
		}
		mean, margin := result.MeanAndMargin()
		row = append(row, fmt.Sprintf("%.4f(±%.4f)", mean, margin))
		if err := table.Append(row); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

type jsonResult struct {
	Metric string    `json:"metric"`
	K      int       `json:"k"`
	Scores []float32 `json:"scores"`
	Mean   float32   `json:"mean"`
	Margin float32   `json:"margin"`
}

// JSONReporter writes an array with an object per metric.
type JSONReporter struct{}

func (JSONReporter) Report(w io.Writer, results []evaluator.Result) error {
	out := lo.Map(results, func(result evaluator.Result, _ int) jsonResult {
		mean, margin := result.MeanAndMargin()
		return jsonResult{Metric: result.Metric, K: result.K, Scores: result.Scores, Mean: mean, Margin: margin}
	})
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return errors.Trace(encoder.Encode(out))
}
