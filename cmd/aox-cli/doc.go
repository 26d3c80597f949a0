// Package main provides the entry point for aox-cli.
//
// aox-cli drives the mini-app client from a terminal:
//
//   - Sign in (password, SMS, WeChat code or an existing token)
//   - Browse orders, addresses, favorites, messages, notices and banners
//   - Open pages through the navigation guard
//   - Run a local mock backend for development
//
// Usage:
//
//	aox-cli mock-server
//	aox-cli --server http://127.0.0.1:8080 login password -u demo -p demo123
//	aox-cli -o json orders list --status ship
package main
