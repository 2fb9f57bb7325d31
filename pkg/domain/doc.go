/*
Package domain contains the core domain models for the callflow engine.

It defines the fundamental entities of the conversation state machine: the
campaign Script (a graph of Stages connected by ResponseRules), the per-call
CallSession record, and the Result the engine hands back to the telephony
adapter. This package is kept pure and free of external dependencies like I/O
or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Script: A rendered campaign dialog graph (or a legacy flat script).
  - Stage: One node of the graph; holds a message template and response rules.
  - ResponseRule: Pattern set + optional extraction + transition target.
  - CallSession: Runtime snapshot of one call (stage, extracted facts, history).
  - Result: What the adapter needs to answer one caller turn.
*/
package domain
