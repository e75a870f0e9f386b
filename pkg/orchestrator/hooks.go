package orchestrator

import "github.com/lintforge/lintforge/pkg/execmodel"

// Hooks are the optional lifecycle callbacks of spec §4.9. All fields may
// be left nil. AfterTool may be invoked from a worker goroutine during
// parallel execution (spec §5: "callable from worker threads; implementers
// must serialize or use thread-safe sinks") — a Hooks value shared across
// a run must make its own AfterTool safe for concurrent calls if it does
// more than write to a *logger.Sink.
type Hooks struct {
	BeforeTool     func(name string)
	AfterTool      func(outcome execmodel.ToolOutcome)
	AfterDiscovery func(count int)
	AfterPlan      func(totalActions int)
	AfterExecution func(result execmodel.RunResult)
}

func (h Hooks) fireBeforeTool(name string) {
	if h.BeforeTool != nil {
		h.BeforeTool(name)
	}
}

func (h Hooks) fireAfterTool(outcome execmodel.ToolOutcome) {
	if h.AfterTool != nil {
		h.AfterTool(outcome)
	}
}

func (h Hooks) fireAfterDiscovery(count int) {
	if h.AfterDiscovery != nil {
		h.AfterDiscovery(count)
	}
}

func (h Hooks) fireAfterPlan(total int) {
	if h.AfterPlan != nil {
		h.AfterPlan(total)
	}
}

func (h Hooks) fireAfterExecution(result execmodel.RunResult) {
	if h.AfterExecution != nil {
		h.AfterExecution(result)
	}
}
