package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/secflow/secflow/internal/gateway"
)

// Gateway is the subset of the gateway client the services rely on.
type Gateway interface {
	Get(ctx context.Context, path string) gateway.Envelope
	Post(ctx context.Context, path string, body any) gateway.Envelope
	GetBlob(ctx context.Context, path, accept string) (*gateway.Blob, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// maxUnwrap bounds how many nested "data" wrappers are peeled off. The
// backend wraps payloads inconsistently ({data:{...}} or {data:{data:{...}}}).
const maxUnwrap = 3

// unwrapData peels nested {"data": {...}} objects.
func unwrapData(raw json.RawMessage) json.RawMessage {
	for i := 0; i < maxUnwrap; i++ {
		var outer map[string]json.RawMessage
		if err := json.Unmarshal(raw, &outer); err != nil {
			return raw
		}
		inner, ok := outer["data"]
		if !ok {
			return raw
		}
		trimmed := bytes.TrimSpace(inner)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return raw
		}
		raw = trimmed
	}
	return raw
}

// decodeEnvelope checks the envelope status, unwraps the payload and
// validates it into v.
func decodeEnvelope(env gateway.Envelope, endpoint string, v any) error {
	if !env.OK() {
		return &UpstreamError{Endpoint: endpoint, StatusCode: env.StatusCode, Message: env.ErrorMessage()}
	}

	payload := unwrapData(env.Data)
	if len(bytes.TrimSpace(payload)) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return &DataError{Endpoint: endpoint, Err: errors.New("empty payload")}
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return &DataError{Endpoint: endpoint, Err: err}
	}
	return validateShape(endpoint, v)
}

func validateShape(endpoint string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Namespace())
		}
		return &DataError{Endpoint: endpoint, Fields: fields}
	}
	return &DataError{Endpoint: endpoint, Err: err}
}

func requireVar(field, value, tag, reason string) error {
	if err := validate.Var(value, tag); err != nil {
		return &InputError{Field: field, Reason: reason}
	}
	return nil
}
