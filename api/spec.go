// Package api embeds the OpenAPI description served at /openapi.yml.
package api

import _ "embed"

//go:embed openapi.yml
var OpenAPI []byte

// BasePath is the prefix every described path is mounted under.
const BasePath = "/api/v1"
