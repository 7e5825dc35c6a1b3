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

package sampler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelKind = "kind"

	KindUniform  = "uniform"
	KindDisliked = "disliked"
	KindFallback = "fallback"
)

var (
	BatchesProduced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seqrec",
		Subsystem: "sampler",
		Name:      "batches_produced_total",
	})
	PendingBatches = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "seqrec",
		Subsystem: "sampler",
		Name:      "pending_batches",
	})
	NegativesDrawn = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seqrec",
		Subsystem: "sampler",
		Name:      "negatives_drawn_total",
	}, []string{LabelKind})
	WorkerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seqrec",
		Subsystem: "sampler",
		Name:      "worker_failures_total",
	})
)
