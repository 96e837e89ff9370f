package domain

import "path/filepath"

const (
	// EvokeDirName is the name of the internal metadata directory inside the build directory.
	EvokeDirName = ".evoke"

	// StoreDirName is the name of the build info store directory.
	StoreDirName = "state"

	// ConfigFileName is the name of the optional project configuration file.
	ConfigFileName = "evoke.yaml"

	// ObjDirName holds compiled objects.
	ObjDirName = "obj"

	// LibDirName holds static libraries.
	LibDirName = "lib"

	// BinDirName holds linked executables.
	BinDirName = "bin"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// StorePath returns the build info store directory for the given build directory.
// It joins the build directory, .evoke and state.
func StorePath(buildDir string) string {
	return filepath.Join(buildDir, EvokeDirName, StoreDirName)
}
