// Package errors provides the structured error type shared by asynciter
// packages.
//
// Every error carries a machine-readable ErrorCode and a retryable flag.
// AppError values compare by code under errors.Is, so package-level
// sentinels such as async.ErrExhausted keep matching after wrapping.
package errors
