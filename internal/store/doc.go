// Package store defines the persistence contracts for goals and their tasks.
// Implementations live under internal/platform/database; the service layer
// depends only on the interfaces declared here.
package store
