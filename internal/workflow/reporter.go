// Package workflow reports the progress of a chat turn: numbered steps,
// heartbeat notices while a slow call is pending, and step results.
package workflow

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/x/ansi"

	"github.com/tognete/codi/internal/output"
)

// maxDetailWidth bounds the detail line printed under a step.
const maxDetailWidth = 120

// Step is an active named operation.
type Step struct {
	Action string
	Tool   string
}

// Reporter tracks a step counter and a stack of active steps. All methods are
// safe for concurrent use so the heartbeat goroutine can share it.
type Reporter struct {
	mu      sync.Mutex
	printer *output.Printer
	counter int
	active  []Step
}

// NewReporter creates a Reporter writing to printer.
func NewReporter(printer *output.Printer) *Reporter {
	if printer == nil {
		printer = output.GetGlobalPrinter()
	}
	return &Reporter{printer: printer}
}

// LogStep starts a step. A tool label changes the marker and is appended to the line.
func (r *Reporter) LogStep(action, tool, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counter++
	r.active = append(r.active, Step{Action: action, Tool: tool})

	if tool != "" {
		r.printer.Line(output.SemanticStep, fmt.Sprintf("\n🛠️  Step %d: %s using %s", r.counter, action, tool))
	} else {
		r.printer.Line(output.SemanticStep, fmt.Sprintf("\n💭 Step %d: %s", r.counter, action))
	}
	if details != "" {
		r.printer.Line(output.SemanticDetail, "   └─ "+ansi.Truncate(details, maxDetailWidth, "..."))
	}
}

// LogWorking emits a heartbeat for the step on top of the stack. It is a no-op with no active step.
func (r *Reporter) LogWorking(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.active) == 0 {
		return
	}
	top := r.active[len(r.active)-1]
	r.printer.Line(output.SemanticWorking, fmt.Sprintf("   ⏳ %s (on: %s)", message, top.Action))
}

// LogResult pops the top step and reports its outcome.
func (r *Reporter) LogResult(success bool, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.active); n > 0 {
		r.active = r.active[:n-1]
	}
	if success {
		r.printer.Line(output.SemanticDone, "   ✅ "+message)
	} else {
		r.printer.Line(output.SemanticFailed, "   ❌ "+message)
	}
}

// Unwind reports a failure and pops every active step. Used when a turn
// aborts with steps still open.
func (r *Reporter) Unwind(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active = r.active[:0]
	r.printer.Line(output.SemanticFailed, "   ❌ "+message)
}

// Reset zeroes the counter and clears the stack. Called once per top-level turn.
func (r *Reporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counter = 0
	r.active = r.active[:0]
}

// StepCount returns the number of steps started since the last Reset.
func (r *Reporter) StepCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counter
}

// ActiveSteps returns a copy of the active stack, bottom first.
func (r *Reporter) ActiveSteps() []Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Step(nil), r.active...)
}
