//go:build !ringnocheck

package ring

import "fmt"

// contractChecks is disabled by building with -tags ringnocheck.
const contractChecks = true

func contract(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("ring: "+format, args...))
	}
}
