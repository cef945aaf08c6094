// SPDX-License-Identifier: Apache-2.0

package otel

import (
	"runtime/debug"
	"sync"
)

// buildVersion returns the module version when the binary was installed from
// a tagged release, the vcs revision for local builds, or "unknown".
var buildVersion = sync.OnceValue(func() string {
	const unknownVersion = "unknown"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return unknownVersion
	}

	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}

	return unknownVersion
})

// Version identifies the running build. It is reported as the service version
// and by the cli --version flag.
func Version() string {
	return buildVersion()
}
