// Package output renders command results for aox-cli as an aligned
// table, indented JSON or YAML. The table renderer accepts a *Table,
// slices of structs or maps, a single struct or a map; anything else
// falls back to JSON.
package output
