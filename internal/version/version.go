package version

import "runtime/debug"

// Version is the current version of this module.
var Version = "0.0.0-dev"

func init() {
	// Look through the binary's dependencies to find the module version.
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Path == "github.com/dogmatiq/courier" && info.Main.Version != "(devel)" && info.Main.Version != "" {
			Version = info.Main.Version
		}

		for _, dep := range info.Deps {
			if dep.Path == "github.com/dogmatiq/courier" {
				Version = dep.Version
			}
		}
	}
}
