// pkg/dylib/constants.go
package dylib

const (
	// LibPrefix is the filename prefix of a native library
	LibPrefix = "lib"

	// LibExtension is the filename extension of a native library
	LibExtension = ".dylib"

	// DebugBundleSuffix marks a debug-symbols bundle directory
	// (libfoo.dylib.dSYM, Foo.framework.dSYM)
	DebugBundleSuffix = ".dSYM"

	// FrameworkSuffix marks a framework bundle directory
	FrameworkSuffix = ".framework"

	// FrameworkDebugSuffix marks a framework debug-symbols bundle
	FrameworkDebugSuffix = FrameworkSuffix + DebugBundleSuffix

	// DebugBundleMarker is the nested file whose presence identifies a
	// debug-symbols bundle inside an archive, where directory entries
	// alone are not reliable
	DebugBundleMarker = "Contents/Info.plist"
)

// Default external tool names
const (
	DefaultFileTool  = "file"
	DefaultOtoolTool = "otool"
	DefaultLipoTool  = "lipo"
)
