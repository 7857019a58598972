// Provides platform-appropriate paths for cruxgen.
//
// All paths follow XDG conventions on Linux and platform-native conventions
// on macOS and Windows. The program name "cruxgen" is used as the
// subdirectory under each base path.
package paths
