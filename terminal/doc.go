// Package terminal provides direct ANSI terminal control for the vi-git runtime.
//
// Features:
//   - Raw mode and alternate screen entry with independent, best-effort restoration
//   - Window title and cursor visibility control
//   - Double-buffered output with cell-level diffing
//   - Raw stdin input decoding into tcell key vocabulary
//   - SIGWINCH resize detection
//   - Emergency restoration for crash paths
//
// This package bypasses terminfo/termcap entirely, emitting direct ANSI sequences.
// Target environments: Linux, macOS, BSDs with xterm-compatible terminals.
package terminal
