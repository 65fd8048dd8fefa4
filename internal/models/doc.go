// Package models defines the core domain models for Secret Santa.
//
// # Models
//
//   - Participant: one member of the gifting group, identified by name and email
//   - Sender: the mail server and identity used to notify participants
//   - Assignment: who each participant must gift (a derangement of the group)
//   - Message: one rendered notification addressed to a single santa
//
// # Design Principles
//
// 1. **Value identity**: Participant is a comparable struct, so it works as a
// map key and equality is structural over (Name, Email)
// 2. **Immutable results**: Assignment hides its mapping behind methods and is
// only built through NewAssignment, which refuses anything that is not a
// derangement
// 3. **One run, no persistence**: every model lives for a single invocation
//
// # Errors
//
// Each failure kind of the pipeline has its own error type in this package so
// callers classify failures with errors.As without importing the producer.
package models
