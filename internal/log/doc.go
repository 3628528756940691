// Package log provides secure logging built on the standard slog package.
//
// The inputs urldiff compares are URLs, and interesting URLs frequently
// carry credentials in their userinfo. SecureHandler scrubs them:
//   - attributes with credential-like keys (password, userinfo, token) are
//     masked entirely;
//   - string values and messages keep their URLs, with only the userinfo
//     replaced by MaskValue;
//   - bearer, basic and JWT values are masked wherever they appear.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("adapter failed", "input", "http://alice:pw@host/")
//	// input=http://***REDACTED***@host/
//
//	slog.SetDefault(logger)
package log
