// Package models defines the core domain models for the debt ledger.
//
// # Models
//
//   - Friend: a counterparty with one running balance against the ledger owner
//   - Transaction: one EXPENSE or PAYMENT entry belonging to a friend
//   - Bill, BillItem: archived itemized receipts that produced EXPENSE entries
//   - ReceiptData: the parsed result handed back by the receipt extraction service
//
// # Design Principles
//
//  1. **Balance is owned by the ledger**: only the ledger's atomic unit writes Friend.Balance
//  2. **Direction lives in the type**: Transaction.Amount is always positive
//  3. **Avoid circular references**: relationships are ID strings, not pointers
//  4. **Money is decimal**: every amount is a shopspring decimal, never a float
package models
