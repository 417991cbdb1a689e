// Package actuators adapts the core's tool verbs onto the host OS: screen
// capture and input injection, a persistent shell session, a document
// interpreter for a scripting runtime, and text-to-speech. Each actuator is
// a narrow synchronous interface; none owns retry logic — that lives in the
// Rate Governor and Tool Dispatcher layers above it.
package actuators
