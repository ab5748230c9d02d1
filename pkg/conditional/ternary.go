// package conditional
//
// small expression helpers go does not ship with
package conditional

// Ternary : returns a if cond is true otherwise b (both sides are evaluated)
func Ternary[T any](cond bool, a T, b T) T {
	if cond {
		return a
	}
	return b
}
