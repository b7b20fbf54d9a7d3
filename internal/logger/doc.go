// Package logger wraps zap to offer a global sugared logger with a console
// encoder, context helpers (ToContext/FromContext/WithKV), level parsing and
// key-value convenience functions (InfoKV, ErrorKV, etc.).
//
// Components take a context and pull the logger from it, so the kernel can
// scope every log line of a port with that port's id.
package logger
