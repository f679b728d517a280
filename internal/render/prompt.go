package render

import (
	"context"
	"errors"

	"github.com/LucasPickering/slumber/internal/chain"
)

// Prompter is the render-level spelling of chain.Prompter: whatever
// presents prompt()/select() to a human (CLI stdin, TUI overlay) and
// returns their answer.
type Prompter = chain.Prompter

// noPrompts backs a Renderer with no Prompter configured (the plain
// one-shot CLI render, spec.md §4.5): every prompt/select fails closed
// instead of blocking forever on a channel nobody drains.
type noPrompts struct{}

func (noPrompts) Prompt(context.Context, chain.PromptRequest) (string, error) {
	return "", errors.New("render: no interactive prompt available")
}

func (noPrompts) Select(context.Context, chain.SelectRequest) (string, error) {
	return "", errors.New("render: no interactive prompt available")
}

// promptReply carries a UI's answer (or cancellation) back to the render
// goroutine blocked on it.
type promptReply struct {
	Value string
	Err   error
}

// PromptEvent is published on ChannelPrompter.Requests; exactly one of
// Prompt/Select is set. The UI goroutine must send exactly one promptReply
// on Reply.
type PromptEvent struct {
	Prompt *chain.PromptRequest
	Select *chain.SelectRequest
	Reply  chan<- promptReply
}

// ChannelPrompter is the single-producer/single-consumer prompt channel
// described in spec.md §5: render goroutines publish a request here and
// block for a reply, while a UI goroutine drains Requests one at a time.
type ChannelPrompter struct {
	Requests chan PromptEvent
}

// NewChannelPrompter returns a ChannelPrompter ready for a UI goroutine to
// drain.
func NewChannelPrompter() *ChannelPrompter {
	return &ChannelPrompter{Requests: make(chan PromptEvent)}
}

func (p *ChannelPrompter) Prompt(ctx context.Context, req chain.PromptRequest) (string, error) {
	reply := make(chan promptReply, 1)
	select {
	case p.Requests <- PromptEvent{Prompt: &req, Reply: reply}:
	case <-ctx.Done():
		return "", &chain.ErrPromptCancelled{}
	}
	select {
	case r := <-reply:
		return r.Value, r.Err
	case <-ctx.Done():
		return "", &chain.ErrPromptCancelled{}
	}
}

func (p *ChannelPrompter) Select(ctx context.Context, req chain.SelectRequest) (string, error) {
	reply := make(chan promptReply, 1)
	select {
	case p.Requests <- PromptEvent{Select: &req, Reply: reply}:
	case <-ctx.Done():
		return "", &chain.ErrPromptCancelled{}
	}
	select {
	case r := <-reply:
		return r.Value, r.Err
	case <-ctx.Done():
		return "", &chain.ErrPromptCancelled{}
	}
}

// Reply answers a pending PromptEvent. Must be called exactly once.
func Reply(ev PromptEvent, value string, err error) {
	ev.Reply <- promptReply{Value: value, Err: err}
}
