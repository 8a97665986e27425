// Package api handles incoming HTTP requests for goals, routing, request
// validation and response formatting. It adapts HTTP concerns to the goal
// service and maps domain, store and generation errors to status codes.
package api
