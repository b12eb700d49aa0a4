// Package buildsystem defines the build-system collaborator interface
// from spec §6 plus the compilation-database parsing and fsnotify
// watch list the core owns per §6's explicit note that the core owns
// the file format watch even though the build system itself is an
// external collaborator.
//
// Grounded on the teacher's config loading discipline (internal/config)
// for the parsing half, and on the pack's only fsnotify user pattern —
// a single watcher goroutine draining Events/Errors until a done
// channel closes — for the watch half.
package buildsystem

import "codenerd/internal/workspace"

// BuildSettings is the per-file result of a build-settings query.
type BuildSettings struct {
	CompilerArgs []string
	WorkingDir   string
}

// BuildSystem is the external collaborator interface from spec §6.
// workspace.BuildSystem (FileHandlingCapability) is embedded so a
// BuildSystem can be registered directly into a workspace.Registry.
type BuildSystem interface {
	workspace.BuildSystem

	// BuildSettings returns compiler arguments for uri, or ok=false if
	// the build system has no settings for it.
	BuildSettings(uri, language string) (settings BuildSettings, ok bool)
}

// ChangeNotifier is implemented by callers that want to react to
// spec §6's three build-system notifications.
type ChangeNotifier interface {
	FileBuildSettingsChanged(uris []string)
	FilesDependenciesUpdated(uris []string)
	FileHandlingCapabilityChanged()
}
