package overtime

import "sync"

// balanceCache memoizes running balances per employee. Each key carries a
// generation that invalidate bumps, so a read that raced a write cannot
// store a stale value.
type balanceCache struct {
	mu          sync.Mutex
	balances    map[string]int
	generations map[string]uint64
}

func newBalanceCache() *balanceCache {
	return &balanceCache{
		balances:    make(map[string]int),
		generations: make(map[string]uint64),
	}
}

func cacheKey(tenantID, employeeID string) string {
	return tenantID + ":" + employeeID
}

// get returns the cached balance and the generation to pass to set on a miss.
func (c *balanceCache) get(key string) (int, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	balance, ok := c.balances[key]
	return balance, c.generations[key], ok
}

func (c *balanceCache) set(key string, balance int, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[key] != generation {
		return
	}
	c.balances[key] = balance
}

func (c *balanceCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[key]++
	delete(c.balances, key)
}
