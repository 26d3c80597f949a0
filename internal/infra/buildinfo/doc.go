// Package buildinfo exposes version metadata injected with ldflags:
//
//	go build -ldflags "-X github.com/PHJ369906/aox-miniapp/internal/infra/buildinfo.Version=v0.3.0 \
//	  -X github.com/PHJ369906/aox-miniapp/internal/infra/buildinfo.Commit=abc123"
//
// When the binary was built without ldflags, Commit and GoVersion fall
// back to the module build information embedded by the toolchain.
package buildinfo
