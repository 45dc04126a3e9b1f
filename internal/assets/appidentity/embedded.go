package appidentityassets

import _ "embed"

// YAML is the embedded application identity, compiled in so the binary
// behaves the same regardless of working directory or install layout.
//
//go:embed app.yaml
var YAML []byte
