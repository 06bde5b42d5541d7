/*
Package modlib resolves symbols and builds inter-module linkage for
relocatable ELF32 kernel modules.

# License

Source codes are under Apache License Version 2.0.

# Underwater

 1. Symbol names are materialized from the image's string table through a
    bounded, incrementally growing session buffer, so names of any length
    can be read without mapping the whole string table into memory.
 2. An undefined reference is bound against already installed modules
    first (newest installed wins ties), then against the kernel's
    built-in export table.
 3. A successful cross-module match records a dependency edge in the
    registry as part of the match, which the registry uses to refuse
    unloading a module while a dependent is still installed.
 4. After resolution a module publishes its own export table, built from
    every named symbol in its symbol table, for modules installed later.

# Notes

 1. A LoadInfo is one load session and must not be shared between
    goroutines; the registry is the only shared surface and locks itself.
 2. Modules must be compiled without common symbols (-fno-common);
    resolving a common symbol always fails.
 3. Rebuilding an export table over an existing one is supported and
    logged, not an error: the old table is torn down first.

# Samples

See the package tests and the modtool command.
*/
package modlib
