// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stream turns the store's per-stage snapshots into a sequence of
// progress events for one observing client. Each subscriber runs its own
// poll-compare-emit loop: it reads the snapshot at a fixed interval and
// emits an event only when the observed status changed, so fast
// intermediate statuses may be coalesced but a terminal status is always
// the last event.
package stream

import (
	"context"
	"time"

	"github.com/pdiddy/trendscope/internal/store"
	"github.com/pdiddy/trendscope/pkg/types"
)

// DefaultPollInterval is used when the caller passes a non-positive interval.
const DefaultPollInterval = 100 * time.Millisecond

// Subscribe starts a polling observer for the given session and returns its
// event channel. The channel closes when a terminal status has been
// emitted, when the session is absent from the store (never submitted or
// already evicted), or when ctx is cancelled.
func Subscribe(ctx context.Context, st store.Store, id string, interval time.Duration) <-chan types.ProgressUpdate {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ch := make(chan types.ProgressUpdate)
	go func() {
		defer close(ch)

		var last types.ResearchStatus
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			state, err := st.Get(ctx, id)
			if err != nil {
				return
			}

			if state.Status != last {
				last = state.Status
				select {
				case ch <- updateFor(state):
				case <-ctx.Done():
					return
				}
				if state.Status.Terminal() {
					return
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// updateFor builds the event for a snapshot: status, stage name, a
// human-readable message, and whichever counters the snapshot already has.
func updateFor(state *types.ResearchState) types.ProgressUpdate {
	u := types.ProgressUpdate{
		Status:        state.Status,
		Message:       statusMessage(state),
		Node:          stageNode(state.Status),
		ResultsCount:  len(state.RawResults),
		ClustersCount: len(state.Clusters),
	}
	if state.Insights != nil {
		u.InsightsCount = len(state.Insights.Insights)
	}
	if state.Status == types.StatusFailed {
		u.Error = state.Error
	}
	return u
}

func stageNode(s types.ResearchStatus) string {
	switch s {
	case types.StatusSearching, types.StatusSearchCompleted:
		return "search"
	case types.StatusAnalyzing, types.StatusClusteringCompleted, types.StatusClusteringSkipped:
		return "analysis"
	case types.StatusGeneratingInsights, types.StatusCompleted:
		return "insight"
	default:
		return ""
	}
}

func statusMessage(state *types.ResearchState) string {
	switch state.Status {
	case types.StatusInitialized:
		return "분석을 준비하고 있습니다"
	case types.StatusSearching:
		return "관련 문서를 검색하고 있습니다"
	case types.StatusSearchCompleted:
		return "검색이 완료되었습니다"
	case types.StatusAnalyzing:
		return "문서를 분석하고 있습니다"
	case types.StatusClusteringCompleted:
		return "주제 분류가 완료되었습니다"
	case types.StatusClusteringSkipped:
		return "문서 수가 적어 단일 주제로 분석합니다"
	case types.StatusGeneratingInsights:
		return "인사이트를 생성하고 있습니다"
	case types.StatusCompleted:
		return "분석이 완료되었습니다"
	case types.StatusFailed:
		return state.Error
	default:
		return ""
	}
}
