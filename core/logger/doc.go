// Package logger records shell activity as a newline delimited JSON event
// log and summarizes it.
package logger
