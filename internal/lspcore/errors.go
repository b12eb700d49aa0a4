// Package lspcore wires the payload, document, workspace, backend,
// service, registry, scheduler, rename, hierarchy, progress,
// capabilities, buildsystem, and index packages into one running LSP
// server, and defines the typed error kinds surfaced at the reply
// boundary (spec §7).
//
// Grounded on the teacher's fmt.Errorf("...: %w", err) wrapping
// discipline throughout internal/mcp, generalized into a small closed
// Kind enumeration so handleRequest can translate any Error into the
// right LSP ResponseError code without a type switch per call site.
package lspcore

import (
	"fmt"

	"codenerd/internal/rpc"
)

// Kind is one of the error kinds spec §7 enumerates.
type Kind string

const (
	KindWorkspaceNotOpen     Kind = "workspace-not-open"
	KindInvalidRange         Kind = "invalid-range"
	KindMethodNotFound       Kind = "method-not-found"
	KindInternalError        Kind = "internal-error"
	KindUnknown              Kind = "unknown"
	KindCancelled            Kind = "cancelled"
	KindVersionNotSupported  Kind = "version-not-supported"
)

// Error is the typed error every handler returns at its reply
// boundary. Best-effort sub-operations (additional rename files,
// progress creation) instead log and continue, per spec §7's
// propagation policy.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Newf builds an Error of kind with a formatted detail.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// toResponseError translates an Error (or any other error) into an LSP
// ResponseError for the rpc transport.
func toResponseError(err error) *rpc.ResponseError {
	if err == nil {
		return nil
	}
	lerr, ok := err.(*Error)
	if !ok {
		return &rpc.ResponseError{Code: rpc.InternalError, Message: err.Error()}
	}
	switch lerr.Kind {
	case KindMethodNotFound:
		return &rpc.ResponseError{Code: rpc.MethodNotFound, Message: lerr.Error()}
	case KindInvalidRange:
		return &rpc.ResponseError{Code: rpc.InvalidParams, Message: lerr.Error()}
	case KindCancelled:
		return &rpc.ResponseError{Code: rpc.RequestCancelled, Message: lerr.Error()}
	case KindWorkspaceNotOpen, KindVersionNotSupported:
		return &rpc.ResponseError{Code: rpc.ServerNotInitialized, Message: lerr.Error()}
	case KindInternalError, KindUnknown:
		fallthrough
	default:
		return &rpc.ResponseError{Code: rpc.InternalError, Message: lerr.Error()}
	}
}
