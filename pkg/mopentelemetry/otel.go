package mopentelemetry

import (
	"encoding/json"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HandleSpanError records err on the span and marks its status as error.
func HandleSpanError(span *trace.Span, message string, err error) {
	(*span).RecordError(err)
	(*span).SetStatus(codes.Error, message+": "+err.Error())
}

// SetSpanAttributesFromStruct serializes s as JSON and stores it under key on the span.
func SetSpanAttributesFromStruct(span *trace.Span, key string, s any) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	(*span).SetAttributes(attribute.String(key, string(raw)))

	return nil
}
