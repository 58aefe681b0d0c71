// Package streaming reassembles provider stream chunks into a final
// chat.CreateResult. Providers feed it text deltas and indexed tool-call
// fragments in arrival order; it tracks empty-chunk tolerance and the finish
// reason, and synthesizes the final result when the transport ends.
package streaming

import (
	"strings"

	"github.com/modelfleet/modelfleet/chat"
)

type partialCall struct {
	id   strings.Builder
	name strings.Builder
	args strings.Builder
}

// Assembler accumulates one streaming exchange. It is not safe for
// concurrent use; a stream has a single consumer.
type Assembler struct {
	tolerance int
	emptyRun  int

	text strings.Builder

	byIndex map[int]*partialCall
	order   []int

	finish    chat.FinishReason
	hasFinish bool
}

// New returns an Assembler that tolerates up to tolerance consecutive empty
// chunks. Zero means the first empty chunk fails the stream.
func New(tolerance int) *Assembler {
	if tolerance < 0 {
		tolerance = 0
	}
	return &Assembler{
		tolerance: tolerance,
		byIndex:   make(map[int]*partialCall),
	}
}

// AddText appends a text delta in arrival order.
func (a *Assembler) AddText(delta string) {
	a.emptyRun = 0
	a.text.WriteString(delta)
}

// AddToolCallDelta appends fragments of the tool call at the given index.
// Providers may split a single call's id, name, and JSON arguments across
// many chunks; fragments concatenate in arrival order.
func (a *Assembler) AddToolCallDelta(index int, id, name, args string) {
	a.emptyRun = 0
	pc := a.byIndex[index]
	if pc == nil {
		pc = &partialCall{}
		a.byIndex[index] = pc
		a.order = append(a.order, index)
	}
	pc.id.WriteString(id)
	pc.name.WriteString(name)
	pc.args.WriteString(args)
}

// SetFinish records the provider's finish signal.
func (a *Assembler) SetFinish(reason chat.FinishReason) {
	a.emptyRun = 0
	a.finish = reason
	a.hasFinish = true
}

// NoteEmptyChunk counts one empty chunk. It returns an
// EmptyChunkExceededError once the consecutive run exceeds the tolerance;
// below tolerance the chunk is skipped silently.
func (a *Assembler) NoteEmptyChunk() error {
	a.emptyRun++
	if a.emptyRun > a.tolerance {
		return &chat.EmptyChunkExceededError{Count: a.emptyRun, Tolerance: a.tolerance}
	}
	return nil
}

// HasToolCalls reports whether any tool-call fragments were observed.
func (a *Assembler) HasToolCalls() bool {
	return len(a.order) > 0
}

// Text returns the text accumulated so far.
func (a *Assembler) Text() string {
	return a.text.String()
}

// Finalize synthesizes the final result from the accumulated state. Tool
// calls win over text when both were observed; provider-returned call names
// are normalized leniently. It fails with ErrMissingFinishReason when no
// finish signal was ever recorded.
func (a *Assembler) Finalize() (chat.CreateResult, error) {
	if !a.hasFinish {
		return chat.CreateResult{}, chat.ErrMissingFinishReason
	}
	if len(a.order) > 0 {
		calls := make([]chat.FunctionCall, 0, len(a.order))
		for _, idx := range a.order {
			pc := a.byIndex[idx]
			args := pc.args.String()
			if args == "" {
				args = "{}"
			}
			calls = append(calls, chat.FunctionCall{
				ID:        pc.id.String(),
				Name:      chat.NormalizeName(pc.name.String()),
				Arguments: args,
			})
		}
		return chat.CreateResult{
			FunctionCalls: calls,
			FinishReason:  chat.FinishFunctionCalls,
		}, nil
	}
	return chat.CreateResult{
		Content:      a.text.String(),
		FinishReason: a.finish,
	}, nil
}
