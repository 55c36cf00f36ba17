// internal/cred/resolver.go
package cred

import (
	"context"
	"errors"
	"log/slog"
)

// Policy governs whether a profile's secret is stored, always prompted, or
// never persisted.
type Policy string

const (
	PolicyStore        Policy = "store"
	PolicyPromptAlways Policy = "prompt-always"
	PolicyNeverSave    Policy = "never-save"
)

// Source reports where a resolved secret came from.
type Source string

const (
	SourceStore  Source = "store"
	SourcePrompt Source = "prompt"
)

// Resolution is a successfully resolved secret.
type Resolution struct {
	Secret string
	Source Source
}

// Request identifies the profile a secret is needed for.
type Request struct {
	ProfileID   string
	ProfileName string
	User        string
	Host        string
	Policy      Policy
}

// Resolver turns a credential policy into a secret, consulting the store
// and the prompter. It is the only component that touches the secret store.
type Resolver struct {
	store    Store
	prompter Prompter
	logger   *slog.Logger
}

// NewResolver creates a resolver. store may be nil when no platform store
// is available; resolution then always prompts.
func NewResolver(store Store, prompter Prompter, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{store: store, prompter: prompter, logger: logger}
}

// Resolve produces the secret for a connect attempt per the profile's
// policy. A broken store degrades to prompting; a dismissed prompt returns
// ErrPromptCancelled and the caller must not contact the backend.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Resolution, error) {
	switch req.Policy {
	case PolicyStore:
		return r.resolveFromStore(ctx, req)
	case PolicyPromptAlways, PolicyNeverSave:
		return r.prompt(ctx, req)
	default:
		r.logger.Warn("unknown credential policy, prompting without saving", "policy", req.Policy)
		return r.prompt(ctx, req)
	}
}

func (r *Resolver) resolveFromStore(ctx context.Context, req Request) (Resolution, error) {
	storeBroken := r.store == nil
	if !storeBroken {
		secret, found, err := r.store.Get(req.ProfileID)
		switch {
		case err != nil:
			storeBroken = true
			r.logger.Warn("credential store unavailable, falling back to prompt", "profile", req.ProfileName, "error", err)
		case found:
			return Resolution{Secret: secret, Source: SourceStore}, nil
		}
	}

	res, err := r.prompt(ctx, req)
	if err != nil {
		return Resolution{}, err
	}
	if !storeBroken {
		if err := r.store.Set(req.ProfileID, res.Secret); err != nil {
			r.logger.Warn("could not persist credential", "profile", req.ProfileName, "error", err)
		}
	}
	return res, nil
}

func (r *Resolver) prompt(ctx context.Context, req Request) (Resolution, error) {
	secret, err := r.prompter.Prompt(ctx, PromptRequest{
		ProfileName: req.ProfileName,
		User:        req.User,
		Host:        req.Host,
	})
	if err != nil {
		if errors.Is(err, ErrPromptCancelled) || errors.Is(err, context.Canceled) {
			return Resolution{}, ErrPromptCancelled
		}
		return Resolution{}, err
	}
	return Resolution{Secret: secret, Source: SourcePrompt}, nil
}

// Forget drops the stored secret for a profile. Called after the backend
// rejects a stored credential so the next attempt prompts again.
func (r *Resolver) Forget(profileID string) {
	if r.store == nil {
		return
	}
	if err := r.store.Delete(profileID); err != nil {
		r.logger.Warn("could not delete stored credential", "profile_id", profileID, "error", err)
	}
}
