// Package validator checks type dependencies against a policy and memoises
// the verdict per namespace pair and target type.
package validator

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"nsguard/internal/core/policy"
	"nsguard/internal/engine/analysis"
	"nsguard/internal/shared/observability"
)

const DefaultCacheSize = 4096

// cacheKey carries the policy so that a verdict computed for one policy is
// never served for another, even while bind is swapping them.
type cacheKey struct {
	policy *policy.Policy
	from   string
	to     string
	toType string
}

// Validator is safe for concurrent use. Its cache is purged whenever a
// different policy is passed in.
type Validator struct {
	mu     sync.Mutex
	policy *policy.Policy
	cache  *lru.Cache[cacheKey, bool]
}

func New(size int) (*Validator, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, bool](size)
	if err != nil {
		return nil, fmt.Errorf("create validator cache: %w", err)
	}
	return &Validator{cache: cache}, nil
}

// IsAllowed reports whether dep is permitted by p.
func (v *Validator) IsAllowed(p *policy.Policy, dep analysis.TypeDependency) bool {
	v.bind(p)
	key := cacheKey{policy: p, from: dep.FromNamespace, to: dep.ToNamespace, toType: dep.ToType}
	if allowed, ok := v.cache.Get(key); ok {
		observability.ValidatorCacheHits.Inc()
		return allowed
	}
	observability.ValidatorCacheMisses.Inc()
	allowed := p.IsAllowed(dep.FromNamespace, dep.ToNamespace, dep.ToType)
	v.cache.Add(key, allowed)
	return allowed
}

// Len returns the number of cached verdicts.
func (v *Validator) Len() int {
	return v.cache.Len()
}

func (v *Validator) bind(p *policy.Policy) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.policy != p {
		v.cache.Purge()
		v.policy = p
	}
}
