// Package schema defines the schema generations persisted by genstore.
//
// This package contains type definitions only. Higher layers import schema;
// schema imports nothing internal. Generations form a closed sum type:
// Record is sealed, and each generation owns a disjoint field set that never
// changes once deployed. New fields require a new generation.
//
// Generations:
//   - V1 (gen-1): Name, Aux (principal -> description)
//   - V2 (gen-2): FavoriteColor, FavoriteMusician
//   - V3 (gen-3): Account{FirstName, LastName, Pronoun}
package schema
