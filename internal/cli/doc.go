// Package cli implements the tekvoro command: it drives the session guard,
// the route gate and the telemetry client from a terminal.
//
// Commands:
//
//	login [-u name] [-password-stdin]   verify credentials and persist the session
//	logout                              clear the persisted session
//	whoami                              print the current user
//	gate [-role r] <path>               evaluate the route gate for a navigation
//	track [-path p] [-meta k=v] <type>  report one telemetry event
//	visit [-scroll 25,50] <path>        replay a page visit through the passive tracker
//	summary [-from d] [-to d]           print the analytics summary
//	popular [-limit n]                  print the most viewed pages
//	journey (-session id | -user id)    print the events of a visit or a user
//	version                             print the build version
package cli
