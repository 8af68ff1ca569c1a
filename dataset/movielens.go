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
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// Split selects which columns of a MovieLens file are retained.
type Split string

const (
	// SplitTrain keeps user, item, weight and datetime.
	SplitTrain Split = "train"
	// SplitTest keeps user and item.
	SplitTest Split = "test"
	// DefaultSplit is used by callers that do not care about the split.
	DefaultSplit = SplitTrain
)

var (
	trainColumns = []string{ColumnUser, ColumnItem, ColumnWeight, ColumnDatetime}
	testColumns  = []string{ColumnUser, ColumnItem}
)

// LoadMovieLens loads a headerless tab-separated MovieLens-100k file such as
// u1.base or u1.test. Each line holds user id, item id, rating and timestamp.
func LoadMovieLens(path string, split Split) (*Interactions, error) {
	var columns []string
	switch split {
	case SplitTrain:
		columns = trainColumns
	case SplitTest:
		columns = testColumns
	default:
		return nil, errors.NotValidf("split %q, use %q or %q", split, SplitTrain, SplitTest)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()

	interactions := &Interactions{columns: columns}
	keepAll := split == SplitTrain
	if keepAll {
		interactions.Weights = make([]float32, 0)
		interactions.Timestamps = make([]int64, 0)
	}
	err = readLines(file, '\t', func(line int, fields []string) error {
		if isBlank(fields) {
			return nil
		}
		if len(fields) != len(trainColumns) {
			return errors.NotValidf("%s:%d: expect %d fields, got %d", path, line+1, len(trainColumns), len(fields))
		}
		userId, itemId := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])
		if userId == "" || itemId == "" {
			return errors.NotValidf("%s:%d: empty user or item id", path, line+1)
		}
		interactions.Users = append(interactions.Users, userId)
		interactions.Items = append(interactions.Items, itemId)
		if keepAll {
			weight, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 32)
			if err != nil {
				return errors.NotValidf("%s:%d: weight %q", path, line+1, fields[2])
			}
			timestamp, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
			if err != nil {
				return errors.NotValidf("%s:%d: timestamp %q", path, line+1, fields[3])
			}
			interactions.Weights = append(interactions.Weights, float32(weight))
			interactions.Timestamps = append(interactions.Timestamps, timestamp)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return interactions, nil
}
