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
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Column names shared by interaction and recommendation tables.
const (
	ColumnUser     = "user_id"
	ColumnItem     = "item_id"
	ColumnWeight   = "weight"
	ColumnDatetime = "datetime"
	ColumnScore    = "score"
	ColumnRank     = "rank"
)

// Interactions is the ground truth of a split. Weights and Timestamps are nil
// unless the weight and datetime columns were retained.
type Interactions struct {
	columns    []string
	Users      []string
	Items      []string
	Weights    []float32
	Timestamps []int64
}

func (d *Interactions) Columns() []string {
	return d.columns
}

func (d *Interactions) Count() int {
	return len(d.Users)
}

// UserItems returns the set of items each user interacted with.
func (d *Interactions) UserItems() map[string]mapset.Set[string] {
	userItems := make(map[string]mapset.Set[string])
	for i, userId := range d.Users {
		items, ok := userItems[userId]
		if !ok {
			items = mapset.NewThreadUnsafeSet[string]()
			userItems[userId] = items
		}
		items.Add(d.Items[i])
	}
	return userItems
}

// Recommendations are ranked items for users produced by a model for one fold.
// Ranks are one-based. Scores is nil when the source has no score column.
type Recommendations struct {
	Users  []string
	Items  []string
	Scores []float32
	Ranks  []int
}

func (r *Recommendations) Count() int {
	return len(r.Users)
}

func (r *Recommendations) Columns() []string {
	columns := []string{ColumnUser, ColumnItem}
	if r.Scores != nil {
		columns = append(columns, ColumnScore)
	}
	return append(columns, ColumnRank)
}

// RankLists returns the top-k list of every recommended user. Position i of a
// list holds the item ranked i+1, or an empty string if no item has that rank.
func (r *Recommendations) RankLists(k int) map[string][]string {
	lists := make(map[string][]string)
	for i, userId := range r.Users {
		rank := r.Ranks[i]
		if rank > k {
			continue
		}
		list, ok := lists[userId]
		if !ok {
			list = make([]string, k)
			lists[userId] = list
		}
		list[rank-1] = r.Items[i]
	}
	return lists
}

// deriveRanks ranks the items of each user by descending score, or by the order
// of rows if there are no scores. Ties keep the order of rows.
func (r *Recommendations) deriveRanks() {
	r.Ranks = make([]int, len(r.Users))
	groups := lo.GroupBy(lo.Range(len(r.Users)), func(row int) string {
		return r.Users[row]
	})
	for _, rows := range groups {
		if r.Scores != nil {
			sort.SliceStable(rows, func(a, b int) bool {
				return r.Scores[rows[a]] > r.Scores[rows[b]]
			})
		}
		for rank, row := range rows {
			r.Ranks[row] = rank + 1
		}
	}
}

func (r *Recommendations) validateRanks() error {
	seen := mapset.NewThreadUnsafeSet[lo.Tuple2[string, int]]()
	for i, userId := range r.Users {
		if r.Ranks[i] < 1 {
			return errors.NotValidf("rank %d of user %s", r.Ranks[i], userId)
		}
		if !seen.Add(lo.T2(userId, r.Ranks[i])) {
			return errors.NotValidf("duplicate rank %d of user %s", r.Ranks[i], userId)
		}
	}
	return nil
}
