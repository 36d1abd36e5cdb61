// Package logger provides structured logging functionality for the application.
package logger
