//go:build unix && !linux

package terminal

// resetTerminalMode is a no-op where termios ioctl names differ; Leave restores the saved state
func resetTerminalMode() {}
