package main

import (
	"time"
)

// Lookup holds the four resolution maps every parse runs against. Aliases are
// single-hop: an alias value is always a canonical spelling, never another
// alias.
type Lookup struct {
	Users       map[string]string  // normalizeKey -> canonical user
	Bosses      map[string]BossDef // normalizeBossKey -> definition
	NameAliases map[string]string  // normalizeKey -> canonical user
	BossAliases map[string]string  // normalizeBossKey -> canonical boss
}

func BuildLookup(users []string, bosses []BossDef, nameAliases, bossAliases []AliasRow) *Lookup {
	lk := &Lookup{
		Users:       make(map[string]string, len(users)),
		Bosses:      make(map[string]BossDef, len(bosses)),
		NameAliases: make(map[string]string, len(nameAliases)),
		BossAliases: make(map[string]string, len(bossAliases)),
	}
	for _, u := range users {
		if key := normalizeKey(u); key != "" {
			lk.Users[key] = u
		}
	}
	for _, b := range bosses {
		if key := normalizeBossKey(b.Boss); key != "" {
			lk.Bosses[key] = b
		}
	}
	for _, a := range nameAliases {
		if key := normalizeKey(a.Alias); key != "" {
			lk.NameAliases[key] = a.Canonical
		}
	}
	for _, a := range bossAliases {
		if key := normalizeBossKey(a.Alias); key != "" {
			lk.BossAliases[key] = a.Canonical
		}
	}
	return lk
}

// ResolveUser maps a raw token to a canonical user, alias table first.
func (lk *Lookup) ResolveUser(token string) (string, bool) {
	key := normalizeKey(token)
	if canonical, ok := lk.NameAliases[key]; ok {
		key = normalizeKey(canonical)
	}
	user, ok := lk.Users[key]
	return user, ok
}

// ResolveBoss maps a raw token to a boss definition, alias table first.
func (lk *Lookup) ResolveBoss(token string) (BossDef, bool) {
	key := normalizeBossKey(token)
	if canonical, ok := lk.BossAliases[key]; ok {
		key = normalizeBossKey(canonical)
	}
	def, ok := lk.Bosses[key]
	return def, ok
}

func (lk *Lookup) CanonicalUsers() []string {
	out := make([]string, 0, len(lk.Users))
	for _, u := range lk.Users {
		out = append(out, u)
	}
	return out
}

func (lk *Lookup) CanonicalBosses() []string {
	out := make([]string, 0, len(lk.Bosses))
	for _, b := range lk.Bosses {
		out = append(out, b.Boss)
	}
	return out
}

const lookupCacheTTL = 3 * time.Minute

// LookupCache rebuilds the lookup from its loader when stale. Writes to the
// underlying tables must call Invalidate so the next parse sees them.
type LookupCache struct {
	load    func() (*Lookup, error)
	ttl     time.Duration
	cached  *Lookup
	builtAt time.Time
	now     func() time.Time
}

func NewLookupCache(load func() (*Lookup, error)) *LookupCache {
	return &LookupCache{load: load, ttl: lookupCacheTTL, now: time.Now}
}

func (c *LookupCache) Get() (*Lookup, error) {
	if c.cached != nil && c.now().Sub(c.builtAt) < c.ttl {
		return c.cached, nil
	}
	lk, err := c.load()
	if err != nil {
		return nil, err
	}
	c.cached = lk
	c.builtAt = c.now()
	return lk, nil
}

func (c *LookupCache) Invalidate() {
	c.cached = nil
}
