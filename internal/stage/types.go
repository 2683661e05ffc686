// Package stage implements the executors for every stage type of an
// enrichment run and the exhaustive table that routes nodes to them.
package stage

import (
	"basegraph.app/scout/internal/flow"
	"basegraph.app/scout/internal/model"
)

const (
	TypeFetchSource     flow.StageType = "fetch-source"
	TypeEnrichItemBatch flow.StageType = "enrich-item-batch"
	TypeAggregateScore  flow.StageType = "aggregate-and-score"
	TypeFinalizeRequest flow.StageType = "finalize-request-status"
	TypeNotify          flow.StageType = "notify"
)

// All is the closed set of stage types.
var All = []flow.StageType{
	TypeFetchSource,
	TypeEnrichItemBatch,
	TypeAggregateScore,
	TypeFinalizeRequest,
	TypeNotify,
}

type FetchPayload struct {
	RequestID int64
	Topic     string
}

type EnrichPayload struct {
	RequestID int64
	Index     int
	Items     []model.Item
}

type ScorePayload struct {
	RequestID int64
	Topic     string
}

type FinalizePayload struct {
	RequestID int64
}

type NotifyPayload struct {
	RequestID int64
	Topic     string
}
