// Package config loads the optional pyfmt configuration file.
//
// The file may be YAML (.pyfmt.yaml / .pyfmt.yml, parsed with gopkg.in/yaml.v3)
// or JSON with comments (.pyfmt.json / .pyfmt.jsonc, cleaned with
// github.com/tidwall/jsonc before encoding/json decoding). Keys present in
// the file override the built-in defaults; absent keys keep them.
package config
