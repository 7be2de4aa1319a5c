package api

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// TransportKind classifies a failure to reach the backend.
type TransportKind string

const (
	TransportTimeout    TransportKind = "timeout"
	TransportDNS        TransportKind = "dns_error"
	TransportRefused    TransportKind = "connection_refused"
	TransportTLS        TransportKind = "tls_error"
	TransportConnection TransportKind = "connection_failed"
)

// MessageUnreachable is shown for every transport failure.
const MessageUnreachable = "Could not reach FastServices. Check your connection and try again."

// MessageGeneric is shown when the server gives no usable detail.
const MessageGeneric = "Something went wrong. Please try again."

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Kind TransportKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s): %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerError is a non-2xx response. Detail holds the backend's message when
// one could be parsed.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server error %d", e.StatusCode)
	}
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Detail)
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var se *ServerError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *ServerError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// UserMessage converts err into copy suitable for the end user. Errors that
// carry their own user message (validation sentinels) are returned as is.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) {
		return MessageUnreachable
	}
	var se *ServerError
	if errors.As(err, &se) {
		if se.Detail != "" {
			return se.Detail
		}
		return MessageGeneric
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return "Please log in first."
	}
	if errors.Is(err, context.Canceled) {
		return "Cancelled."
	}
	return err.Error()
}

type detailBody struct {
	Detail json.RawMessage `json:"detail"`
}

type detailItem struct {
	Msg string `json:"msg"`
}

func newServerError(status int, body []byte) *ServerError {
	return &ServerError{StatusCode: status, Detail: parseDetail(body)}
}

// parseDetail accepts {"detail": "text"} and {"detail": [{"msg": "text"}, ...]}.
func parseDetail(body []byte) string {
	var b detailBody
	if err := json.Unmarshal(body, &b); err != nil || len(b.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(b.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []detailItem
	if err := json.Unmarshal(b.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if m := strings.TrimSpace(it.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// classifyTransportError maps network errors to a TransportKind.
func classifyTransportError(err error) *TransportError {
	te := &TransportError{Kind: TransportConnection, Err: err}

	var dnsErr *net.DNSError
	var netErr net.Error
	var certErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var recordErr tls.RecordHeaderError

	switch {
	case errors.As(err, &dnsErr):
		te.Kind = TransportDNS
	case errors.Is(err, syscall.ECONNREFUSED):
		te.Kind = TransportRefused
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		te.Kind = TransportTimeout
	case errors.As(err, &certErr), errors.As(err, &unknownAuth), errors.As(err, &hostErr), errors.As(err, &recordErr):
		te.Kind = TransportTLS
	default:
		// Fall back to message matching for wrapped errors from custom transports.
		msg := err.Error()
		switch {
		case strings.Contains(msg, "no such host"):
			te.Kind = TransportDNS
		case strings.Contains(msg, "connection refused"):
			te.Kind = TransportRefused
		case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
			te.Kind = TransportTimeout
		case strings.Contains(msg, "certificate") || strings.Contains(msg, "tls") || strings.Contains(msg, "x509"):
			te.Kind = TransportTLS
		}
	}
	return te
}
