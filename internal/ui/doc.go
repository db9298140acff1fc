// Package ui provides the terminal profile editor for Shutter.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. It never reads the cache directly: the
// profile shown on screen comes from the state.Store mirror, polled on a short
// tick, and the "saving" indicator comes from pending-registry subscriptions
// forwarded into the program with Program.Send.
//
// # Editing Flow
//
//  1. While the form is clean, every snapshot reloads the inputs, so an
//     optimistic write, a rollback or a server correction shows up at once
//  2. Typing marks the form dirty and stops the reloads
//  3. ctrl+s hands the draft to the Editor and resumes following the mirror
//  4. A rejected save puts the draft back and shows the server's field errors
//
// # Focus
//
// The program is started with focus reporting. Regaining terminal focus calls
// Options.Focus, which the app wires to the session revalidator.
//
// # Testing Considerations
//
// Model.Update is pure apart from the returned commands, so tests drive it
// with messages and run commands by hand.
package ui
