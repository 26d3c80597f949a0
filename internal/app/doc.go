// Package app is the composition root of the mini-app client.
//
// It opens the persistent store, builds the request engine, the session
// service, the page router and the navigation guard, and wires them so
// that an expired session reported by the engine clears the in-memory
// session and resets the router to the login page.
package app
