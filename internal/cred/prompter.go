// internal/cred/prompter.go
package cred

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// ErrPromptCancelled reports that the user dismissed the credential prompt.
// The connect attempt aborts before the backend is contacted.
var ErrPromptCancelled = errors.New("credential prompt cancelled")

// PromptRequest describes the connection a secret is being asked for.
type PromptRequest struct {
	ProfileName string
	User        string
	Host        string
}

// Prompter asks the user for a secret. Implementations return
// ErrPromptCancelled when the user backs out.
type Prompter interface {
	Prompt(ctx context.Context, req PromptRequest) (string, error)
}

// TerminalPrompter reads a secret from the controlling terminal without
// echo. The interactive UI installs its own modal prompter; this one covers
// plain terminal use.
type TerminalPrompter struct{}

func (TerminalPrompter) Prompt(ctx context.Context, req PromptRequest) (string, error) {
	label := req.ProfileName
	if req.User != "" && req.Host != "" {
		label = fmt.Sprintf("%s@%s", req.User, req.Host)
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", label)

	type result struct {
		secret []byte
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		ch <- result{secret, err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr)
		return "", ErrPromptCancelled
	case res := <-ch:
		fmt.Fprintln(os.Stderr)
		if res.err != nil {
			return "", ErrPromptCancelled
		}
		return string(res.secret), nil
	}
}
