//go:build !cgo

package leopard

// NativeAvailable reports whether this build can load native libraries.
func NativeAvailable() bool { return false }

func loadNative(path string) (nativeLibrary, error) {
	return nil, newError(KindLibraryLoad, "load", "cannot load `%s`: built without cgo", path)
}
