package ports

import "modwire/internal/types"

// ModuleIndexPort loads the module index document.
type ModuleIndexPort interface {
	Load() (types.IndexFile, error)
}
