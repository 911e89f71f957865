package airutil

import "github.com/drone/envsubst"

// ExpandEnv substitutes environment variables in s using shell
// syntax, including defaults such as ${MIRROR:-deb.debian.org}.
// The input is returned unchanged if it cannot be parsed.
func ExpandEnv(s string) string {
	val, err := envsubst.EvalEnv(s)
	if err != nil {
		return s
	}
	return val
}
