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

package dataset

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
)

var foldTagPattern = regexp.MustCompile(`(\d+)$`)

// ParseFilename splits a file name of the form <model>_<fold tag>.<ext> into the
// model name and the fold tag.
func ParseFilename(name string) (model, foldTag string, err error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	tokens := strings.Split(stem, "_")
	if len(tokens) != 2 || tokens[0] == "" || tokens[1] == "" {
		return "", "", errors.NotValidf("malformed filename %q, expect <model>_<fold>.<ext>", name)
	}
	return tokens[0], tokens[1], nil
}

// LoadRecommendationFile loads a comma-separated file with a header row. The
// user_id and item_id columns are required, score and rank are optional.
func LoadRecommendationFile(path string) (*Recommendations, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()

	reco := &Recommendations{}
	var userColumn, itemColumn, scoreColumn, rankColumn int
	err = readLines(file, ',', func(line int, fields []string) error {
		if line == 0 {
			header := lo.Map(fields, func(field string, _ int) string {
				return strings.TrimSpace(strings.TrimPrefix(field, "\ufeff"))
			})
			userColumn = lo.IndexOf(header, ColumnUser)
			itemColumn = lo.IndexOf(header, ColumnItem)
			scoreColumn = lo.IndexOf(header, ColumnScore)
			rankColumn = lo.IndexOf(header, ColumnRank)
			if userColumn < 0 || itemColumn < 0 {
				return errors.NotValidf("%s: header %v lacks %s or %s", path, header, ColumnUser, ColumnItem)
			}
			if scoreColumn >= 0 {
				reco.Scores = make([]float32, 0)
			}
			if rankColumn >= 0 {
				reco.Ranks = make([]int, 0)
			}
			return nil
		}
		if isBlank(fields) {
			return nil
		}
		width := max(userColumn, itemColumn, scoreColumn, rankColumn) + 1
		if len(fields) < width {
			return errors.NotValidf("%s:%d: expect at least %d fields, got %d", path, line+1, width, len(fields))
		}
		userId, itemId := strings.TrimSpace(fields[userColumn]), strings.TrimSpace(fields[itemColumn])
		if userId == "" || itemId == "" {
			return errors.NotValidf("%s:%d: empty user or item id", path, line+1)
		}
		reco.Users = append(reco.Users, userId)
		reco.Items = append(reco.Items, itemId)
		if scoreColumn >= 0 {
			score, err := strconv.ParseFloat(strings.TrimSpace(fields[scoreColumn]), 32)
			if err != nil {
				return errors.NotValidf("%s:%d: score %q", path, line+1, fields[scoreColumn])
			}
			reco.Scores = append(reco.Scores, float32(score))
		}
		if rankColumn >= 0 {
			rank, err := strconv.Atoi(strings.TrimSpace(fields[rankColumn]))
			if err != nil {
				return errors.NotValidf("%s:%d: rank %q", path, line+1, fields[rankColumn])
			}
			reco.Ranks = append(reco.Ranks, rank)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if reco.Ranks == nil {
		reco.deriveRanks()
	}
	if err = reco.validateRanks(); err != nil {
		return nil, errors.Annotate(err, path)
	}
	return reco, nil
}

// Entry is a recommendation file of a model.
type Entry struct {
	Name    string
	FoldTag string
	Fold    int
	Table   *Recommendations
}

// Registry groups recommendation tables by model name. Entries of a model are
// kept in lexicographic order of their file names.
type Registry struct {
	models map[string][]*Entry
}

func NewRegistry() *Registry {
	return &Registry{models: make(map[string][]*Entry)}
}

// Add appends a table of a model. Fold numbers are assigned by Index.
func (r *Registry) Add(model, name, foldTag string, table *Recommendations) {
	r.models[model] = append(r.models[model], &Entry{Name: name, FoldTag: foldTag, Table: table})
}

// Index assigns fold numbers. If every fold tag of a model ends with digits,
// the digits are the fold number (shifted by one when a tag is zero). Otherwise
// folds follow the order of file names.
func (r *Registry) Index() error {
	for model, entries := range r.models {
		numbers := make([]int, len(entries))
		numeric := true
		for i, entry := range entries {
			match := foldTagPattern.FindStringSubmatch(entry.FoldTag)
			if match == nil {
				numeric = false
				break
			}
			numbers[i], _ = strconv.Atoi(match[1])
		}
		if numeric {
			if lo.Contains(numbers, 0) {
				numbers = lo.Map(numbers, func(n int, _ int) int { return n + 1 })
			}
		} else {
			numbers = lo.Range(len(entries))
			numbers = lo.Map(numbers, func(n int, _ int) int { return n + 1 })
		}
		folds := mapset.NewThreadUnsafeSet[int]()
		for i, entry := range entries {
			if !folds.Add(numbers[i]) {
				return errors.NotValidf("model %s has more than one file for fold %d (%s)", model, numbers[i], entry.Name)
			}
			entry.Fold = numbers[i]
		}
	}
	return nil
}

// Models returns model names in lexicographic order.
func (r *Registry) Models() []string {
	models := lo.Keys(r.models)
	sort.Strings(models)
	return models
}

// Tables returns tables of a model in lexicographic order of file names.
func (r *Registry) Tables(model string) []*Recommendations {
	return lo.Map(r.models[model], func(entry *Entry, _ int) *Recommendations {
		return entry.Table
	})
}

func (r *Registry) Entries(model string) []*Entry {
	return r.models[model]
}

// Fold returns the table of a model for a one-based fold.
func (r *Registry) Fold(model string, fold int) (*Recommendations, error) {
	entries, ok := r.models[model]
	if !ok {
		return nil, errors.NotFoundf("model %s", model)
	}
	entry, ok := lo.Find(entries, func(entry *Entry) bool {
		return entry.Fold == fold
	})
	if !ok {
		return nil, errors.NotFoundf("fold %d of model %s (present folds %v)", fold, model,
			lo.Map(entries, func(entry *Entry, _ int) int { return entry.Fold }))
	}
	return entry.Table, nil
}

// Folds returns the tables of folds 1..n of a model.
func (r *Registry) Folds(model string, n int) ([]*Recommendations, error) {
	tables := make([]*Recommendations, n)
	for i := range tables {
		table, err := r.Fold(model, i+1)
		if err != nil {
			return nil, errors.Trace(err)
		}
		tables[i] = table
	}
	return tables, nil
}

type loadOptions struct {
	progress io.Writer
}

type LoadOption func(*loadOptions)

// WithProgress renders a progress bar to w while loading.
func WithProgress(w io.Writer) LoadOption {
	return func(o *loadOptions) {
		o.progress = w
	}
}

// LoadRecommendations loads every recommendation file in dir. Sub directories
// and hidden files are skipped.
func LoadRecommendations(dir string, opts ...LoadOption) (*Registry, error) {
	options := &loadOptions{}
	for _, opt := range opts {
		opt(options)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Trace(err)
	}
	entries = lo.Filter(entries, func(entry os.DirEntry, _ int) bool {
		return !entry.IsDir() && !strings.HasPrefix(entry.Name(), ".")
	})
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	var bar *progressbar.ProgressBar
	if options.progress != nil {
		bar = progressbar.NewOptions(len(entries),
			progressbar.OptionSetWriter(options.progress),
			progressbar.OptionSetDescription("loading recommendations"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish())
	}
	registry := NewRegistry()
	for _, entry := range entries {
		model, foldTag, err := ParseFilename(entry.Name())
		if err != nil {
			return nil, errors.Trace(err)
		}
		table, err := LoadRecommendationFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, errors.Trace(err)
		}
		registry.Add(model, entry.Name(), foldTag, table)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if err = registry.Index(); err != nil {
		return nil, errors.Trace(err)
	}
	return registry, nil
}
