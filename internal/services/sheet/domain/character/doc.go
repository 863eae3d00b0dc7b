// Package character models a character sheet.
//
// A character owns three constrained term maps and three named entry sets:
//   - skill and attribute ratings, bounded per term and by a shared pool,
//   - drive statements, allowed only on attributes rated high enough,
//   - talents, traits and assets, keyed by case-insensitive name.
//
// Every mutation is validated before it lands; a rejected call leaves the
// sheet exactly as it was. Callers serialize mutations of one character.
package character
