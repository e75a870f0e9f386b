package catalog

import "embed"

// schemaassetsFS embeds the catalog's own JSON Schema documents so that
// validation works from a single compiled binary with no external schema
// fetch, mirroring the teacher's internal/assets embedding of its
// meta-schemas and config schemas.
//
//go:embed schemaassets/*.json
var schemaassetsFS embed.FS
