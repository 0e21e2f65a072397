// Package docker runs formatters inside throwaway containers.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Container labels identifying pyfmt containers (pyfmt.* prefix)
//   - An Executor that runs one formatter per container, with the
//     repository bind-mounted at /src
//   - Listing and removing leftover containers (the prune command)
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
