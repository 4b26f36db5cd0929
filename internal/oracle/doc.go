// Package oracle is the client for the remote social-graph distance
// oracle.
//
// client.go issues one HTTP request per operation (distance, batch
// distance, follows, common follows, path, stats, health) and applies a
// uniform status policy: 404 is a domain answer translated to the
// operation's empty value, any other non-2xx propagates as a
// StatusError, and only Healthy swallows failures.
//
// validate.go rejects untrusted response bodies before they leave the
// package. Each endpoint family has a declarative rule table
// (field → predicate → wanted shape); the first violation rejects the
// whole response with a ValidationError naming the field and value.
//
// transport.go builds the shared http.Client (auth round-tripper, mTLS,
// timeout) from configuration; metrics.go scrapes the oracle's
// Prometheus /metrics exposition for watch mode.
package oracle
