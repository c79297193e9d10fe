package common

import (
	"math"
	"os/user"
)

func IsRunningAsRoot() bool {
	usr, err := user.Current()
	if err != nil {
		return false
	}
	return usr.Username == "root"
}

// Optional holds a value that may not have been supplied yet.
type Optional[T any] struct {
	Value T
	Known bool
}

func (o *Optional[T]) Set(v T) {
	o.Value = v
	o.Known = true
}

func (o *Optional[T]) Clear() {
	var zero T
	o.Value = zero
	o.Known = false
}

// OrNaN returns the value, or NaN when it is not known.
func OrNaN(o Optional[float64]) float64 {
	if !o.Known {
		return math.NaN()
	}
	return o.Value
}
