package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domainauth "github.com/corruptguard/helix/internal/domain/auth"
	"github.com/corruptguard/helix/internal/ports"
)

// Storage slot names. The session slot layout is shared with the web client.
const (
	SlotSession       = "corruptguard_auth"
	SlotDemoToken     = "demo_access_token"
	SlotDemoRole      = "demo_user_role"
	SlotIdentityUser  = "ii_user"
	SlotIdentityToken = "ii_token"
)

// AllSlots lists every slot a session may write; logout clears all of them.
func AllSlots() []string {
	return []string{SlotSession, SlotDemoToken, SlotDemoRole, SlotIdentityUser, SlotIdentityToken}
}

var errNoStoredSession = errors.New("no stored session")

// sessionSlots is the typed view over the raw slot store.
type sessionSlots struct {
	store ports.SessionStore
}

func (s sessionSlots) load(ctx context.Context) (domainauth.Session, error) {
	raw, err := s.store.Get(ctx, SlotSession)
	if err != nil {
		return domainauth.Session{}, err
	}
	var sess domainauth.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("decode stored session: %w", err)
	}
	return sess, nil
}

// save writes the session slot plus the demo auxiliary slots for demo sessions.
// Other sessions drop demo slots left by an earlier demo login.
func (s sessionSlots) save(ctx context.Context, sess domainauth.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.store.Set(ctx, SlotSession, raw); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if !sess.DemoMode {
		if err := s.store.Delete(ctx, SlotDemoToken, SlotDemoRole); err != nil {
			return fmt.Errorf("drop demo slots: %w", err)
		}
		return nil
	}
	if err := s.store.Set(ctx, SlotDemoToken, []byte(sess.Token)); err != nil {
		return fmt.Errorf("store demo token: %w", err)
	}
	if err := s.store.Set(ctx, SlotDemoRole, []byte(sess.User.Role)); err != nil {
		return fmt.Errorf("store demo role: %w", err)
	}
	return nil
}

func (s sessionSlots) clear(ctx context.Context) error {
	return s.store.Delete(ctx, AllSlots()...)
}

// mutate atomically rewrites the stored session. It fails with errNoStoredSession
// when nothing is stored, and leaves the slot untouched in that case.
func (s sessionSlots) mutate(ctx context.Context, fn func(*domainauth.Session)) error {
	missing := false
	err := s.store.Update(ctx, SlotSession, func(current []byte) ([]byte, error) {
		missing = current == nil
		if missing {
			return nil, nil
		}
		var sess domainauth.Session
		if err := json.Unmarshal(current, &sess); err != nil {
			return nil, fmt.Errorf("decode stored session: %w", err)
		}
		fn(&sess)
		return json.Marshal(sess)
	})
	if err != nil {
		return err
	}
	if missing {
		return errNoStoredSession
	}
	return nil
}

// saveIdentity records the identity-provider user and raw token.
func saveIdentity(ctx context.Context, store ports.SessionStore, user domainauth.User, rawToken string) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode identity user: %w", err)
	}
	if err := store.Set(ctx, SlotIdentityUser, raw); err != nil {
		return fmt.Errorf("store identity user: %w", err)
	}
	if err := store.Set(ctx, SlotIdentityToken, []byte(rawToken)); err != nil {
		return fmt.Errorf("store identity token: %w", err)
	}
	return nil
}
