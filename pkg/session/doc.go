/*
Package session implements the Call Session Store: the keyed map from call
identifier to per-call conversation state.

The Manager serializes read-modify-write cycles per call ID with a
reference-counted lock map, so provider webhook retries for the same call can
never interleave, while events for different calls proceed fully in parallel.
An optional DistributedLocker extends the exclusion across replicas.
*/
package session
