package schema

import _ "embed"

// ProcfileV1Schema contains the JSON schema for process manifests.
//
//go:embed procfile.v1.json
var ProcfileV1Schema []byte
