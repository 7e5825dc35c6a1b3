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
	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
)

// HR means Hit Ratio.
func HR(targetSet mapset.Set[int32], rankList []int32) float32 {
	if hits(targetSet, rankList) > 0 {
		return 1
	}
	return 0
}

// MRR means Mean Reciprocal Rank, the inverse rank of the first relevant item.
func MRR(targetSet mapset.Set[int32], rankList []int32) float32 {
	for i, itemId := range rankList {
		if targetSet.Contains(itemId) {
			return 1 / float32(i+1)
		}
	}
	return 0
}

func hits(targetSet mapset.Set[int32], rankList []int32) int {
	hit := 0
	for _, itemId := range rankList {
		if targetSet.Contains(itemId) {
			hit++
		}
	}
	return hit
}

// dcg is \sum_i 1/\log_2(i+1) over the ranks i holding a relevant item.
func dcg(targetSet mapset.Set[int32], rankList []int32) float32 {
	sum := float32(0)
	for i, itemId := range rankList {
		if targetSet.Contains(itemId) {
			sum += 1.0 / math32.Log2(float32(i)+2.0)
		}
	}
	return sum
}

// idcg is the dcg of a ranking whose first n items are all relevant.
func idcg(n int) float32 {
	sum := float32(0)
	for i := 0; i < n; i++ {
		sum += 1.0 / math32.Log2(float32(i)+2.0)
	}
	return sum
}

// userMetrics scores one ranking at cutoff k. Precision divides by k even when
// fewer than k candidates were ranked, and recall divides by the number of
// positives including repeated items.
func userMetrics(positives []int32, rankList []int32, k int) (ndcg, precision, recall float32) {
	targetSet := mapset.NewThreadUnsafeSet(positives...)
	if ideal := idcg(min(len(positives), k)); ideal > 0 {
		ndcg = dcg(targetSet, rankList) / ideal
	}
	hit := hits(targetSet, rankList)
	precision = float32(hit) / float32(k)
	if len(positives) > 0 {
		recall = float32(hit) / float32(len(positives))
	}
	return
}
