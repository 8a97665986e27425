// Package domain contains the core business entities, value objects, and
// domain logic of the application: goals and the ordered steps an AI
// breakdown produced for them. It is independent of any specific
// infrastructure or delivery mechanism.
package domain
