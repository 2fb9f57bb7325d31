/*
Package observability provides Prometheus instrumentation for the callflow
engine: per-turn outcome counters, extraction counts, and an active-call
gauge. A nil *Metrics is a valid no-op, so the engine never branches on
whether metrics are configured.
*/
package observability
