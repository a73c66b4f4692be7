package config

import (
	"context"
)

// Loader is the interface for a format-specific workflow loader. Load reads
// every workflow file found under the given paths, validates it, and
// translates it into the format-agnostic model.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}
