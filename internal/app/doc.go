// Package app contains the decision run itself. It wires configuration, the
// graph builder, the morpher and the target filters together and writes the
// resulting graph artifacts, decoupled from any specific entrypoint like a
// CLI.
package app
