// internal/tui/prompt.go
package tui

import (
	"context"

	"github.com/dbdeck/dbdeck/internal/cred"
)

// Prompter bridges credential prompts into the UI. Connect attempts run on
// explorer goroutines; Prompt hands the request to the model over a channel
// and blocks until the user answers the password popup or backs out.
type Prompter struct {
	requests chan promptRequest
}

type promptRequest struct {
	req   cred.PromptRequest
	reply chan promptReply
}

type promptReply struct {
	secret string
	err    error
}

func NewPrompter() *Prompter {
	return &Prompter{requests: make(chan promptRequest)}
}

func (p *Prompter) Prompt(ctx context.Context, req cred.PromptRequest) (string, error) {
	pr := promptRequest{req: req, reply: make(chan promptReply, 1)}
	select {
	case p.requests <- pr:
	case <-ctx.Done():
		return "", cred.ErrPromptCancelled
	}
	select {
	case reply := <-pr.reply:
		return reply.secret, reply.err
	case <-ctx.Done():
		return "", cred.ErrPromptCancelled
	}
}
