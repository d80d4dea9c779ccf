// Package api carries the OpenAPI description served by every service.
package api

import _ "embed"

//go:embed openapi.yml
var OpenAPISpec []byte
