// Package models defines the core domain models for Splitscan.
//
// A Group owns Receipts; each Receipt has LineItems, and each LineItem can be
// assigned to one or more users via LineItemAssignments. Payments record who
// put money toward a receipt, and Settlements record manual debt clearances
// between two members of a group.
//
// All monetary fields use shopspring decimals: amounts and shares carry two
// fractional digits, exchange rates six. Relationships are expressed as ID
// strings rather than pointers to avoid circular references.
//
// The invariant the rest of the system is built around: for any line item
// with at least one assignment, the assignment share amounts sum exactly to
// the line item amount. Shares are computed in integer cents (see the ledger
// package), so the invariant holds without rounding drift.
package models
