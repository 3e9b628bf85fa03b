// Package auth - vault unlock session state
package auth

import (
	"context"
	"sync"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// Authenticator boundary with the platform authentication capability.
//
// The capability is opaque; there is no distinction between a user-cancelled
// prompt and a hardware failure. Any non-success means the vault stays locked.
type Authenticator interface {
	/*
		Authenticate attempt device authentication

			@param ctx context.Context - execution context
			@returns whether authentication succeeded
	*/
	Authenticate(ctx context.Context) (bool, error)
}

/*
Session remembers, within one process session, whether authentication has
already succeeded, so the user is not re-prompted on every screen.

The flag is explicitly scoped to this object rather than package state; set
it up once at startup, unlock on successful authentication, and lock again
when the app moves to the background.
*/
type Session struct {
	goutils.Component

	mtx sync.Mutex

	unlocked bool
}

/*
NewSession define new unlock session, starting locked

	@returns session instance
*/
func NewSession() *Session {
	logTags := log.Fields{"module": "auth", "component": "unlock-session"}

	return &Session{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
	}
}

/*
Unlock attempt to unlock the session through the authenticator.

Already-unlocked sessions succeed without re-prompting.

	@param ctx context.Context - execution context
	@param authenticator Authenticator - the platform authentication capability
	@returns whether the session is now unlocked
*/
func (s *Session) Unlock(ctx context.Context, authenticator Authenticator) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.unlocked {
		return true, nil
	}

	success, err := authenticator.Authenticate(ctx)
	if err != nil || !success {
		// Any non-success means stay locked
		return false, err
	}

	s.unlocked = true
	log.WithFields(s.LogTags).Info("Vault session unlocked")
	return true, nil
}

// Lock clear the unlock flag. Call on app backgrounding.
func (s *Session) Lock() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.unlocked = false
}

// Unlocked whether authentication already succeeded this session
func (s *Session) Unlocked() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.unlocked
}
