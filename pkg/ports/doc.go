/*
Package ports defines the interfaces between the callflow core and its
adapters (Hexagonal Architecture).

Driven ports cover session persistence (SessionStore), cross-replica
coordination (DistributedLocker), and the optional external collaborators the
telephony adapter talks to around the engine (SpeechSynthesizer,
IntentClassifier). The engine itself never blocks on a collaborator: NLU is a
best-effort signal and TTS happens strictly outside the matching algorithm.
*/
package ports
