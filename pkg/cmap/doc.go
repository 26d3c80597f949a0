// Package cmap provides a generic concurrent map split into shards, each
// behind its own RWMutex.
//
// Usage:
//
//	m := cmap.New[string, *rate.Limiter]()
//	l := m.GetOrCompute(ip, func() *rate.Limiter { return rate.NewLimiter(5, 5) })
package cmap
