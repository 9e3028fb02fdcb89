// Package vm implements the wilc execution engine.
//
// This package contains:
//   - Tagged Value representation (Name, Integer, String, List)
//   - Opcode catalog with categories and parameter signatures
//   - Program, Instruction and Unit data model
//   - Two-level scoping (one global scope, one local scope per unit)
//   - Program-counter driven dispatch loop
//   - CBOR program images and a disassembler
package vm
