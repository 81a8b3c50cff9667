// Package all imports all supported repository backends.
//
// Import this package for its side effects to register every URL scheme:
//
//	import (
//		"github.com/git-pkgs/depmeta"
//		_ "github.com/git-pkgs/depmeta/all"
//	)
//
//	// Now all backends are available
//	schemes := depmeta.SupportedSchemes()
//	// ["file", "http", "https", "s3"]
package all

import (
	_ "github.com/git-pkgs/depmeta/internal/blob"
	_ "github.com/git-pkgs/depmeta/internal/maven"
)
