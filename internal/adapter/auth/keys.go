package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"sync/atomic"

	"github.com/thushan/lmsgate/internal/config"
	"github.com/thushan/lmsgate/internal/core/domain"
)

const AnonymousPrincipal = "anonymous"

// KeyAuthenticator matches bearer tokens against the configured API keys.
// Only SHA-256 digests are held and every key is compared on each lookup
// so timing does not reveal which key matched.
type KeyAuthenticator struct {
	state atomic.Pointer[keySet]
}

type keySet struct {
	keys    []keyEntry
	enabled bool
}

type keyEntry struct {
	principal domain.Principal
	digest    [sha256.Size]byte
}

func NewKeyAuthenticator(cfg config.AuthConfig) *KeyAuthenticator {
	a := &KeyAuthenticator{}
	a.Update(cfg)
	return a
}

// Update replaces the key set, keys with an unknown role are skipped
func (a *KeyAuthenticator) Update(cfg config.AuthConfig) {
	set := &keySet{
		enabled: cfg.Enabled,
		keys:    make([]keyEntry, 0, len(cfg.Keys)),
	}
	for _, k := range cfg.Keys {
		role, ok := domain.ParseRole(k.Role)
		if !ok || k.Key == "" {
			continue
		}
		set.keys = append(set.keys, keyEntry{
			principal: domain.Principal{Name: k.Name, Role: role},
			digest:    sha256.Sum256([]byte(k.Key)),
		})
	}
	a.state.Store(set)
}

func (a *KeyAuthenticator) Enabled() bool {
	return a.state.Load().enabled
}

// KeyCount is the number of usable keys
func (a *KeyAuthenticator) KeyCount() int {
	return len(a.state.Load().keys)
}

// Authenticate resolves a token to its principal. With auth disabled every
// caller is an anonymous administrator.
func (a *KeyAuthenticator) Authenticate(token string) (domain.Principal, bool) {
	set := a.state.Load()
	if !set.enabled {
		return domain.Principal{Name: AnonymousPrincipal, Role: domain.RoleAdmin}, true
	}
	if token == "" {
		return domain.Principal{}, false
	}

	digest := sha256.Sum256([]byte(token))

	var found domain.Principal
	matched := false
	for _, k := range set.keys {
		if subtle.ConstantTimeCompare(digest[:], k.digest[:]) == 1 && !matched {
			found = k.principal
			matched = true
		}
	}
	return found, matched
}
