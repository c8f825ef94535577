// Package utils provides a collection of helper functions for common tasks,
// such as line-oriented file reading, filename sanitization, randomized pauses,
// and content type validation.
// It is designed to simplify repetitive operations and ensure consistency across the application.
package utils
