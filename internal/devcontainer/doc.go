// Package devcontainer reads the parts of a repository's devcontainer.json
// that the container backend can reuse: the image, and the environment
// variables the container is expected to run with.
//
// Only image-based configurations are used. Configurations that build an
// image (a Dockerfile or Docker Compose) are recognised but ignored, and
// the container backend falls back to its own default image.
//
// JSONC (JSON with Comments) is supported via github.com/tidwall/jsonc,
// matching the common practice of commenting devcontainer.json files.
package devcontainer
