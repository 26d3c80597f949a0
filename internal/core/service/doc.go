// Package service provides the client-side domain services.
//
// This package contains:
//
//   - SessionService: the session store (credential, profile and the
//     derived authenticated flag) kept in sync with persistent storage
//
// Services depend on ports (storage.KV, ProfileFetcher, navigation.Navigator)
// rather than concrete clients, so tests substitute in-memory fakes.
package service
