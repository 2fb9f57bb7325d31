/*
Package flow implements the Conversation Flow Engine: the script-graph
interpreter that decides what the automated agent says next.

Given a call ID, a campaign script, and the caller's transcribed input, the
engine loads the call's session, scans the current stage's response rules in
author-declared order (first pattern hit wins), extracts configured facts
from the raw input, transitions the session, and renders the destination
stage's message. The whole turn runs under the session manager's per-call
lock, so retried or out-of-order webhook deliveries for one call can never
interleave.

The engine performs no network I/O of its own. Text-to-speech and NLU
collaborators live in the adapter layer around it; the only optional inward
dependency is an IntentClassifier consulted after the literal pattern scan
misses.
*/
package flow
