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
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recoText = "user_id,item_id,score,rank\n" +
	"1,10,0.9,1\n" +
	"1,20,0.8,2\n" +
	"2,30,0.7,1\n"

func TestParseFilename(t *testing.T) {
	model, tag, err := ParseFilename("light-fm-wrapper-model_1.csv")
	assert.NoError(t, err)
	assert.Equal(t, "light-fm-wrapper-model", model)
	assert.Equal(t, "1", tag)

	model, tag, err = ParseFilename("modelA_0")
	assert.NoError(t, err)
	assert.Equal(t, "modelA", model)
	assert.Equal(t, "0", tag)

	for _, name := range []string{"model.csv", "a_b_c.csv", "_1.csv", "model_.csv"} {
		_, _, err = ParseFilename(name)
		assert.True(t, errors.Is(err, errors.NotValid), name)
		assert.ErrorContains(t, err, "malformed filename")
	}
}

func TestLoadRecommendationFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "m_1.csv", recoText)
	reco, err := LoadRecommendationFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, reco.Count())
	assert.Equal(t, []string{ColumnUser, ColumnItem, ColumnScore, ColumnRank}, reco.Columns())
	assert.Equal(t, []string{"1", "1", "2"}, reco.Users)
	assert.Equal(t, []string{"10", "20", "30"}, reco.Items)
	assert.Equal(t, []float32{0.9, 0.8, 0.7}, reco.Scores)
	assert.Equal(t, []int{1, 2, 1}, reco.Ranks)
}

func TestLoadRecommendationFileColumns(t *testing.T) {
	dir := t.TempDir()
	// columns in any order, unknown columns ignored
	reco, err := LoadRecommendationFile(writeFile(t, dir, "a_1.csv", "rank,extra,item_id,user_id\n2,x,20,1\n1,y,10,1\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, reco.Ranks)
	assert.Nil(t, reco.Scores)
	// ranks derived from scores
	reco, err = LoadRecommendationFile(writeFile(t, dir, "b_1.csv", "user_id,item_id,score\n1,10,0.1\n1,20,0.5\n2,30,0.3\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 1}, reco.Ranks)
	// ranks derived from row order
	reco, err = LoadRecommendationFile(writeFile(t, dir, "c_1.csv", "user_id,item_id\n1,10\n2,30\n1,20\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, reco.Ranks)
	// header only
	reco, err = LoadRecommendationFile(writeFile(t, dir, "d_1.csv", "user_id,item_id,score,rank\n"))
	require.NoError(t, err)
	assert.Zero(t, reco.Count())
}

func TestLoadRecommendationFileInvalid(t *testing.T) {
	dir := t.TempDir()
	for name, text := range map[string]string{
		"header_1.csv":    "user,item\n1,2\n",
		"rank_1.csv":      "user_id,item_id,rank\n1,2,x\n",
		"zero_1.csv":      "user_id,item_id,rank\n1,2,0\n",
		"duplicate_1.csv": "user_id,item_id,rank\n1,2,1\n1,3,1\n",
		"score_1.csv":     "user_id,item_id,score\n1,2,high\n",
		"short_1.csv":     "user_id,item_id,rank\n1,2\n",
	} {
		_, err := LoadRecommendationFile(writeFile(t, dir, name, text))
		assert.True(t, errors.Is(err, errors.NotValid), name)
	}
}

func TestLoadRecommendations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "modelB_0.csv", recoText)
	writeFile(t, dir, "modelA_1.csv", "user_id,item_id,rank\n1,11,1\n")
	writeFile(t, dir, "modelA_0.csv", "user_id,item_id,rank\n1,10,1\n")
	writeFile(t, dir, ".gitkeep", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	registry, err := LoadRecommendations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"modelA", "modelB"}, registry.Models())
	tables := registry.Tables("modelA")
	assert.Len(t, tables, 2)
	assert.Equal(t, []string{"10"}, tables[0].Items)
	assert.Equal(t, []string{"11"}, tables[1].Items)
	assert.Len(t, registry.Tables("modelB"), 1)
	// zero-based tags are shifted
	fold, err := registry.Fold("modelA", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"11"}, fold.Items)
}

func TestLoadRecommendationsProgress(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m_1.csv", recoText)
	progress := filepath.Join(t.TempDir(), "progress")
	w, err := os.Create(progress)
	require.NoError(t, err)
	defer w.Close()
	registry, err := LoadRecommendations(dir, WithProgress(w))
	require.NoError(t, err)
	assert.Len(t, registry.Tables("m"), 1)
}

func TestLoadRecommendationsMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "model_fold_1.csv", recoText)
	_, err := LoadRecommendations(dir)
	assert.True(t, errors.Is(err, errors.NotValid), err)

	_, err = LoadRecommendations(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRegistryFolds(t *testing.T) {
	table := &Recommendations{}
	registry := NewRegistry()
	// numeric tags beat lexicographic order
	for _, tag := range []string{"fold1", "fold10", "fold2"} {
		registry.Add("m", "m_"+tag+".csv", tag, table)
	}
	require.NoError(t, registry.Index())
	assert.Equal(t, []int{1, 10, 2}, []int{
		registry.Entries("m")[0].Fold, registry.Entries("m")[1].Fold, registry.Entries("m")[2].Fold})

	// non-numeric tags follow file order
	registry = NewRegistry()
	for _, tag := range []string{"a", "b", "c", "d", "e"} {
		registry.Add("m", "m_"+tag+".csv", tag, table)
	}
	require.NoError(t, registry.Index())
	tables, err := registry.Folds("m", 5)
	require.NoError(t, err)
	assert.Len(t, tables, 5)

	// missing fold
	registry = NewRegistry()
	for _, tag := range []string{"1", "2", "3", "4"} {
		registry.Add("m", "m_"+tag+".csv", tag, table)
	}
	require.NoError(t, registry.Index())
	_, err = registry.Folds("m", 5)
	assert.True(t, errors.Is(err, errors.NotFound), err)
	assert.ErrorContains(t, err, "fold 5")

	// missing model
	_, err = registry.Folds("unknown", 5)
	assert.True(t, errors.Is(err, errors.NotFound), err)

	// duplicate fold
	registry = NewRegistry()
	registry.Add("m", "m_01.csv", "01", table)
	registry.Add("m", "m_1.csv", "1", table)
	assert.True(t, errors.Is(registry.Index(), errors.NotValid))
}

func TestRankLists(t *testing.T) {
	reco := &Recommendations{
		Users: []string{"1", "1", "1", "2"},
		Items: []string{"a", "b", "c", "d"},
		Ranks: []int{1, 3, 4, 2},
	}
	lists := reco.RankLists(3)
	assert.Equal(t, map[string][]string{
		"1": {"a", "", "b"},
		"2": {"", "d", ""},
	}, lists)
}
