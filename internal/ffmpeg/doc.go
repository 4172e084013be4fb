// Package ffmpeg builds argument vectors for the encoder and runs them.
//
// Commands are never passed through a shell. The combined stdout and stderr
// of each invocation is written to the console and, when requested, to a log
// file through a single writer, replacing the "2>&1 | tee log" idiom.
package ffmpeg
