/*
Package script owns campaign script definitions and template rendering.

A Repository holds industry template families and the registered campaign
catalog. Asking it for a campaign's script produces a fully independent
Script copy: two concurrent calls running the same campaign can never bleed
state into each other through a shared catalog entry.

Rendering is a pure string operation: every {name} placeholder is replaced
from the variable map, and a missing variable surfaces as a visible
"[MISSING: name]" marker in the produced speech instead of failing the call.
*/
package script
