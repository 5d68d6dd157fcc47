// Package cli provides the interactive agenda command-line client.
//
// It wires configuration, the REST API client and a REPL. A background
// watcher pings the server and shows whether it is reachable.
//
// Commands cover the account lifecycle (register, login, password reset),
// the personal agenda, the public forum and the BMI calculator. The REPL
// is started via App.Run(ctx), which blocks until the user exits.
package cli
