package app

import (
	"github.com/kvolkov/gridci/internal/registry"
	"github.com/kvolkov/gridci/modules/env_vars"
	"github.com/kvolkov/gridci/modules/script"
)

// coreModules is the definitive list of all step modules that are compiled
// into the gridci binary.
var coreModules = []registry.Module{
	&script.Module{},
	&env_vars.Module{},
}
