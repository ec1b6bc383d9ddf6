// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): indexes, model services, extractors and
// guardrail strategies consumed by the core services.
package driven
