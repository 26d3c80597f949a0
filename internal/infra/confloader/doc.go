// Package confloader layers configuration sources with koanf.
//
// Priority, highest first:
//
//  1. Flag map (WithFlags)
//  2. Environment variables (AOX_ prefix, "__" separates sections)
//  3. YAML file
//  4. Values already present in the target struct
//
// Watcher reports changes to a config file so long-running commands can
// reload the settings that are safe to change at runtime.
package confloader
