//go:build ringnocheck

package ring

const contractChecks = false

func contract(bool, string, ...interface{}) {}
