// Package logger wraps zap with the conventions the pipeline relies on:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields/AtLevel),
//   - level parsing and configuration (ParseLogLevel, SetLevel, WithLevel).
//
// Every stage accepts a context and logs through the logger carried in it,
// so names and run-scoped fields accumulate as the pipeline descends.
package logger
