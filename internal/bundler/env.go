package bundler

import (
	"encoding/json"
	"regexp"
	"strings"
)

// EnvironmentFunc derives the build-time constants exposed to the admin
// front-end. Keys are the expressions replaced in source, values are JSON.
type EnvironmentFunc func(admin AdminOptions, env Env) map[string]string

// clientEnvPrefix marks process environment variables passed to the client.
const clientEnvPrefix = "ADMIN_"

// identifierRegexp matches names usable in a process.env.<NAME> define.
var identifierRegexp = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ClientEnvironment is the default EnvironmentFunc. environ holds KEY=VALUE
// pairs as returned by os.Environ; variables prefixed with ADMIN_ are copied
// unless their name is not a valid identifier. Features keep their order.
func ClientEnvironment(admin AdminOptions, env Env, environ []string) map[string]string {
	vars := map[string]string{}

	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, clientEnvPrefix) || !identifierRegexp.MatchString(key) {
			continue
		}
		vars[key] = value
	}

	vars["NODE_ENV"] = string(env)
	vars["ADMIN_BACKEND_URL"] = admin.Backend
	vars["ADMIN_PATH"] = admin.AdminPath

	defines := make(map[string]string, len(vars)+1)
	for key, value := range vars {
		defines["process.env."+key] = quote(value)
	}

	features := append([]string{}, admin.Features...)
	encoded, _ := json.Marshal(features)
	defines["process.env.ENABLED_EE_FEATURES"] = string(encoded)

	return defines
}

// StaticEnvironment returns an EnvironmentFunc over a fixed environ.
func StaticEnvironment(environ []string) EnvironmentFunc {
	environ = append([]string{}, environ...)
	return func(admin AdminOptions, env Env) map[string]string {
		return ClientEnvironment(admin, env, environ)
	}
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
