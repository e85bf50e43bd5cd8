// Package models defines the core domain models for Journi.
//
// # Session models
//
// A session (one trip's conversation thread) owns a snapshot of:
//   - Expense: a shared cost paid by one participant, split among others
//   - Payment: a direct transfer between two participants
//   - Milestone: a named moment of the trip grouping photos
//   - Photo: an uploaded photo attached to a milestone
//
// Participants inside a session are identified by display name strings:
// any name that appears as a payer, in a split, or on a payment is part of
// the session roster. Amounts are float64 and are never converted between
// currencies; every currency is tracked in parallel.
//
// # Durable models
//
//   - Trip: a durable trip record with a shareable session code
//   - User: a registered account (self-hosted deployments)
//
// Durable records use UUID identifiers; session records use short
// counter-based identifiers ("exp_3", "pay_1") that the language model can
// repeat back reliably.
//
// # Design principles
//
//  1. Session records are plain data: all mutation rules live in
//     internal/trip, all balance arithmetic in internal/ledger.
//  2. Avoid circular references: relationships are ID strings, not pointers.
//  3. Snapshots must round-trip through JSON for checkpointing.
package models
