// Package provider defines the contract the aggregator consumes from external
// news search providers, the shared result types, and the error taxonomy that
// drives retry and circuit breaker decisions. It also ships a generic HTTP
// client for JSON search APIs so providers can be declared in configuration.
package provider
