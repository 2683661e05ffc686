package stage

import (
	"basegraph.app/scout/common/id"
	"basegraph.app/scout/internal/flow"
	"basegraph.app/scout/internal/model"
)

// DefaultPages is how many source result pages fetch-source queries.
const DefaultPages = 2

// Deps are the collaborators the executors call.
type Deps struct {
	Source  SourceFetcher
	Browser SessionOpener
	Scorer  BatchScorer
	Tracker Completer
	Sink    Sink

	Pages     int
	Precision int
	NewID     func() int64
}

type executors struct {
	deps Deps
}

// Handlers returns one handler per stage type in All.
func Handlers(deps Deps) map[flow.StageType]flow.Handler {
	if deps.Pages <= 0 {
		deps.Pages = DefaultPages
	}
	if deps.Precision < 0 {
		deps.Precision = DefaultPrecision
	}
	if deps.NewID == nil {
		deps.NewID = id.New
	}
	e := &executors{deps: deps}

	return map[flow.StageType]flow.Handler{
		TypeFetchSource:     flow.Leaf(e.fetch),
		TypeEnrichItemBatch: flow.Leaf(e.enrich),
		TypeAggregateScore:  flow.Keyed[ScorePayload, []model.Item, []model.Item](e.aggregate),
		TypeFinalizeRequest: flow.Flat[FinalizePayload, model.Item, []model.Item](e.finalize),
		TypeNotify:          flow.Flat[NotifyPayload, model.Item, Delivered](e.notify),
	}
}

// NewDispatcher builds the exhaustive dispatcher over All.
func NewDispatcher(deps Deps) (*flow.Dispatcher, error) {
	return flow.NewDispatcher(All, Handlers(deps))
}
