package metrics

import (
	"sort"

	"github.com/trannam110702/lighthouse-sub001/graph"
)

// BlockingThresholdMs is the part of every task that does not block.
const BlockingThresholdMs = 50

// BlockingEvent is a main thread task in simulated milliseconds.
type BlockingEvent struct {
	Start    float64
	End      float64
	Duration float64
}

// BlockingTimeImpact returns how much of e blocks within [start, end]: the
// task is clipped to the window first and the threshold subtracted after.
func BlockingTimeImpact(e BlockingEvent, start, end float64) float64 {
	if e.Duration < BlockingThresholdMs {
		return 0
	}
	if e.End < start || e.Start > end {
		return 0
	}
	clippedStart := max(e.Start, start)
	clippedEnd := min(e.End, end)
	clipped := clippedEnd - clippedStart
	if clipped < BlockingThresholdMs {
		return 0
	}
	return clipped - BlockingThresholdMs
}

// SumOfBlockingTime totals the blocking time of events within [start, end].
func SumOfBlockingTime(events []BlockingEvent, start, end float64) float64 {
	if end <= start {
		return 0
	}
	var sum float64
	for _, e := range events {
		sum += BlockingTimeImpact(e, start, end)
	}
	return sum
}

// BlockingTask is one long task's share of Total Blocking Time.
type BlockingTask struct {
	Node                    *graph.CPUNode `json:"-"`
	URL                     string         `json:"url"`
	StartTime               float64        `json:"start_time"`
	Duration                float64        `json:"duration"`
	OptimisticBlockingTime  float64        `json:"optimistic_blocking_time"`
	PessimisticBlockingTime float64        `json:"pessimistic_blocking_time"`
	BlockingTime            float64        `json:"blocking_time"`
}

// BlockingSummary breaks Total Blocking Time down by task. Total counts
// every long task; Tasks lists only those attributable to a script.
type BlockingSummary struct {
	Total float64        `json:"total"`
	Tasks []BlockingTask `json:"tasks"`
}

// ExtractBlockingTasks attributes blocking time to the long tasks of the
// pessimistic TBT simulation, blending each task's contribution under the
// optimistic and pessimistic windows with c. A nil result is a missing
// input error naming the metric.
func ExtractBlockingTasks(tbt, fcp, tti *Result, c Coefficients) (BlockingSummary, error) {
	deps := Dependencies{FirstContentfulPaint: fcp, Interactive: tti, TotalBlockingTime: tbt}
	if _, err := deps.Get(TotalBlockingTime); err != nil {
		return BlockingSummary{}, err
	}
	optimistic, err := blockingWindow(deps, true)
	if err != nil {
		return BlockingSummary{}, err
	}
	pessimistic, err := blockingWindow(deps, false)
	if err != nil {
		return BlockingSummary{}, err
	}

	var summary BlockingSummary
	for _, tn := range sortedTimings(tbt.Pessimistic.Timings) {
		t := tn.Timing
		cpu, ok := tn.Node.(*graph.CPUNode)
		if !ok || t.Duration <= BlockingThresholdMs {
			continue
		}
		e := BlockingEvent{Start: t.StartTime, End: t.EndTime, Duration: t.Duration}
		task := BlockingTask{
			Node:                    cpu,
			URL:                     cpu.AttributableURL(),
			StartTime:               t.StartTime,
			Duration:                t.Duration,
			OptimisticBlockingTime:  BlockingTimeImpact(e, optimistic.start, optimistic.end),
			PessimisticBlockingTime: BlockingTimeImpact(e, pessimistic.start, pessimistic.end),
		}
		task.BlockingTime = c.Optimistic*task.OptimisticBlockingTime + c.Pessimistic*task.PessimisticBlockingTime

		summary.Total += task.BlockingTime
		if task.URL != "" {
			summary.Tasks = append(summary.Tasks, task)
		}
	}

	sort.Slice(summary.Tasks, func(i, j int) bool {
		a, b := summary.Tasks[i], summary.Tasks[j]
		if a.BlockingTime != b.BlockingTime {
			return a.BlockingTime > b.BlockingTime
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.Node.ID() < b.Node.ID()
	})
	return summary, nil
}
