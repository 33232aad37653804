package app

import _ "embed"

// OpenAPISpec is the API document served under /docs
//
//go:embed openapi.yaml
var OpenAPISpec []byte
