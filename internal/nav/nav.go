// Package nav defines the client routes the server can steer a signed-in
// user toward.
package nav

type Route string

const (
	RouteHome          Route = "/"
	RouteProfile       Route = "/profile"
	RouteLogin         Route = "/login"
	RouteResetPassword Route = "/reset-password"
)

// Navigator pushes a route change to the user's surface. Navigate must not
// block the caller.
type Navigator interface {
	Navigate(Route)
}
