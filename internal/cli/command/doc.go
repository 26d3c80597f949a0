// Package command provides the aox-cli command definitions.
//
// Commands are built with urfave/cli/v2:
//
//   - root.go: the app, global flags and the per-invocation runtime
//   - session.go: login, logout, status and whoami
//   - request.go: raw requests and guarded page navigation
//   - resource.go: orders, addresses, favorites, messages, notices, banners
//   - mockserver.go: the local fake backend
//   - config.go: effective configuration
//   - version.go: build metadata
//
// Every command that talks to the backend goes through app.Client, so the
// session, the expiry handling and the guard behave exactly as they do
// inside the mini-app.
package command
