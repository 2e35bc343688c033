package httpapi

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for handlers built by NewMux
// afterwards. Empty methods default to GET and OPTIONS.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled && len(origins) > 0
	corsAllowedOrigins = append([]string(nil), origins...)
	if len(methods) == 0 {
		methods = []string{"GET", "OPTIONS"}
	}
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
