// Package nav defines the navigation capability the orchestration core is
// given by the front-end. The core decides where the user goes; the
// front-end decides what a route renders.
package nav

// Navigator moves the user between routes.
type Navigator interface {
	// Push navigates, keeping the current page in history.
	Push(route string)
	// Replace navigates and drops the current history entry, so
	// back-navigation cannot return to the page being left.
	Replace(route string)
}

// Func adapts a function to a Navigator that always replaces.
// Useful for small front-ends that do not keep history at all.
type Func func(route string)

func (f Func) Push(route string)    { f(route) }
func (f Func) Replace(route string) { f(route) }
