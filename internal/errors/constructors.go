package errors

// Convenience constructors for the common categories. Callers typically alias
// the import as ferrors to avoid clashing with the standard library.

// Config creates a configuration error.
func Config(message string) *ForgeError { return New(CategoryConfig, message) }

// Discovery creates a reference-discovery error.
func Discovery(message string) *ForgeError { return New(CategoryDiscovery, message) }

// Compile creates a compilation-backend error.
func Compile(message string) *ForgeError { return New(CategoryCompile, message) }

// Write creates a target write error.
func Write(message string) *ForgeError { return New(CategoryWrite, message) }

// Watch creates a filesystem-observation error.
func Watch(message string) *ForgeError { return New(CategoryWatch, message) }

// Internal creates an internal error.
func Internal(message string) *ForgeError { return New(CategoryInternal, message) }
