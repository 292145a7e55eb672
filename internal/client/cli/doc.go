// Package cli provides the interactive taskboard terminal client.
//
// The App opens the local SQLite mirror, resumes the saved session if there
// is one, and runs a REPL over the task commands. Reads (list, show, board)
// come from the mirror. delete, toggle and move change the mirror at once
// and reach the server in the background; a rejected change is reported
// before the next prompt and fixed by 'refresh', which replaces the mirror
// with the server's list.
package cli
