// Package assert panics on programmer errors that cannot happen with valid
// constants.
package assert

import "fmt"

// That panics with msg when condition is false.
func That(condition bool, msg string, args ...any) {
	if !condition {
		panic(fmt.Sprintf(msg, args...))
	}
}

// NoError panics with msg and err when err is not nil.
func NoError(err error, msg string) {
	if err != nil {
		panic(fmt.Sprintf("%s: %v", msg, err))
	}
}
