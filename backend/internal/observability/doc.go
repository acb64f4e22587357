// Package observability builds the structured zap logger shared by every
// layer of the service.
package observability
