// internal/explorer/connect.go
package explorer

import (
	"context"
	"errors"

	"github.com/dbdeck/dbdeck/internal/config"
	"github.com/dbdeck/dbdeck/internal/cred"
	"github.com/dbdeck/dbdeck/internal/db"
	"github.com/dbdeck/dbdeck/internal/query"
)

// enter descends one level from the current state.
func (e *Explorer) enter(key string) {
	e.banner = ""
	switch e.state {
	case StateConnectionList:
		e.connect(e.selectedOr(key))

	case StateDatabaseList:
		name := e.selectedOr(key)
		if name == "" {
			return
		}
		e.push()
		e.currentDatabase = name
		e.state = StateSchemaList
		e.selected = ""
		e.schemas = nil
		e.loadSchemas("")

	case StateSchemaList:
		name := e.selectedOr(key)
		if name == "" {
			return
		}
		e.push()
		e.currentSchema = name
		e.state = StateTableList
		e.selected = ""
		e.tables = nil
		e.loadTables("")

	case StateTableList:
		name := e.selectedOr(key)
		if name == "" {
			return
		}
		e.push()
		e.currentTable = name
		e.state = StateColumnList
		e.selected = ""
		e.columns = nil
		e.loadColumns("")

	case StateColumnList:
		e.push()
		e.state = StateRowBrowser
		e.page = nil
		e.loadPage(0, "")
	}
}

// connect starts the credential-then-dial sequence for one profile. The
// resolver and the backend are contacted strictly in that order, in a
// single goroutine, so a cancelled prompt never reaches the backend.
func (e *Explorer) connect(profileID string) {
	if profileID == "" || e.session != nil {
		return
	}
	p, err := e.profiles.ProfileByID(profileID)
	if err != nil {
		e.banner = err.Error()
		return
	}
	profile := *p
	e.selected = profileID

	e.issue(slotConnect, func(ctx context.Context, post func(msg any)) {
		post(e.dial(ctx, profile))
	})
}

// dial runs off the loop.
func (e *Explorer) dial(ctx context.Context, profile config.Profile) connectDone {
	done := connectDone{profile: profile}

	var secret string
	policy := credentialPolicy(profile)
	if e.resolver != nil && profile.Kind == config.KindPostgres {
		res, err := e.resolver.Resolve(ctx, cred.Request{
			ProfileID:   profile.ID,
			ProfileName: profile.Name,
			User:        profile.User,
			Host:        profile.Host,
			Policy:      policy,
		})
		if err != nil {
			done.err = err
			return done
		}
		secret = res.Secret
	}

	backend, err := e.openBackend(db.Kind(profile.Kind), e.logger)
	if err != nil {
		done.err = err
		return done
	}

	if err := backend.Connect(ctx, connectParams(profile, secret)); err != nil {
		// A rejected stored secret is stale; drop it so the next attempt
		// prompts again.
		var connErr *db.ConnectionError
		if e.resolver != nil && errors.As(err, &connErr) &&
			connErr.Reason == db.ConnAuthFailed && policy == cred.PolicyStore {
			e.resolver.Forget(profile.ID)
		}
		done.err = err
		return done
	}

	done.session = db.NewSession(backend, profile.ID)
	return done
}

func (e *Explorer) applyConnect(msg connectDone) {
	if msg.err != nil {
		// Backing out of the password prompt is not an error worth showing.
		if errors.Is(msg.err, cred.ErrPromptCancelled) {
			return
		}
		e.banner = msg.err.Error()
		return
	}

	e.profile = msg.profile
	e.session = msg.session
	e.executor = query.NewExecutor(msg.session, query.Options{
		BatchSize: e.batchSize,
		MaxRows:   e.maxRows,
	}, e.logger)
	e.logger.Info("session opened", "profile", msg.profile.Name, "kind", msg.profile.Kind)

	e.push()
	e.state = StateDatabaseList
	e.selected = ""
	e.databases = nil
	e.loadDatabases("")
}

func (e *Explorer) disconnect() {
	if e.session == nil {
		return
	}
	e.closeSession()
	e.state = StateConnectionList
	e.stack = nil
	e.selected = e.profile.ID
	e.banner = ""
}

// closeSession tears down the session and everything derived from it.
// Every slot is bumped so in-flight completions land stale.
func (e *Explorer) closeSession() {
	for s := slot(0); s < slotCount; s++ {
		e.bump(s)
	}

	session := e.session
	e.session = nil
	e.executor = nil
	if session != nil {
		name := e.profile.Name
		go func() {
			if err := session.Close(); err != nil {
				e.logger.Warn("session close failed", "profile", name, "error", err)
			}
		}()
		e.logger.Info("session closed", "profile", name)
	}

	e.currentDatabase = ""
	e.currentSchema = ""
	e.currentTable = ""
	e.databases = nil
	e.schemas = nil
	e.tables = nil
	e.columns = nil
	e.page = nil
	e.pageNum = 0
	e.result = nil
	e.queryText = ""
	e.lastRun = ""
	e.loading = false
}

func credentialPolicy(p config.Profile) cred.Policy {
	if p.CredentialPolicy == "" {
		return cred.PolicyStore
	}
	return cred.Policy(p.CredentialPolicy)
}

func connectParams(p config.Profile, secret string) db.ConnectParams {
	params := db.ConnectParams{
		Host:     p.Host,
		Port:     p.Port,
		User:     p.User,
		Password: secret,
		Database: p.Database,
		Path:     p.Path,
	}
	if p.SSH != nil {
		params.SSH = &db.SSHConfig{
			Host:    p.SSH.Host,
			Port:    p.SSH.Port,
			User:    p.SSH.User,
			KeyPath: p.SSH.KeyPath,
		}
	}
	return params
}
