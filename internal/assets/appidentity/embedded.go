package appidentityassets

import _ "embed"

// YAML is the embedded copy of `.fulmen/app.yaml`, mirrored into a Go-embeddable
// location so the stockhub binary carries its identity standalone.
//
//go:embed app.yaml
var YAML []byte
