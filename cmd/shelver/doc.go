// Command shelver is the CLI for the audiobook library identification and
// safe-rename engine. It hosts the background worker (`shelver run`), manual
// scan and batch triggers, queue management, rename history and undo, and the
// offline book index utilities.
package main
