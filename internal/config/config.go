package config // package config loads application configuration from environment variables

import (
    "log"   // log is used to report configuration errors and halt execution
    "os"    // os provides access to environment variables
    "time"  // time provides duration types for the debounce setting
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for endpoints and secrets, durations for the
// picker's timing knobs.
type Config struct {
    Env             string        // application environment (e.g. "dev", "prod")
    Port            string        // HTTP port to listen on
    SupabaseURL     string        // base URL of the remote PostgREST store
    SupabaseAnonKey string        // api key for the remote store
    IdentitySecret  string        // HMAC secret used to verify identity tokens
    EntitlementURL  string        // base URL of the billing/entitlement API
    EntitlementKey  string        // api key for the billing/entitlement API
    Debounce        time.Duration // quiet interval before an availability lookup
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Timing knobs have
// sensible defaults and are overridable for staging environments.
func Load() Config {
    return Config{
        Env:             must("APP_ENV"),                      // environment (dev/test/prod)
        Port:            must("APP_PORT"),                     // port to bind the HTTP server
        SupabaseURL:     must("SUPABASE_URL"),                 // remote store endpoint
        SupabaseAnonKey: must("SUPABASE_ANON_KEY"),            // remote store api key
        IdentitySecret:  must("IDENTITY_JWT_SECRET"),          // identity token verification secret
        EntitlementURL:  must("ENTITLEMENT_API_URL"),          // billing backend endpoint
        EntitlementKey:  must("ENTITLEMENT_API_KEY"),          // billing backend api key
        Debounce:        defaultDur("DEBOUNCE", 500*time.Millisecond), // availability debounce
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// defaultDur reads an optional duration environment variable, falling back
// to the provided default when unset or malformed.
func defaultDur(key string, def time.Duration) time.Duration {
    s := os.Getenv(key)
    if s == "" {
        return def
    }
    d, err := time.ParseDuration(s)
    if err != nil || d <= 0 {
        log.Printf("invalid duration for %s: %q; using default %s", key, s, def)
        return def
    }
    return d
}
