package apperr

import (
	"errors"
	"net/http"
)

// Upstream groups the provider-side snapshots of a failed completion call.
type Upstream struct {
	Request  *RequestSnapshot  `json:"request,omitempty"`
	Response *ResponseSnapshot `json:"response,omitempty"`
}

// Envelope is the single response shape for every failure.
type Envelope struct {
	Kind      Kind             `json:"kind"`
	Message   string           `json:"message"`
	Status    int              `json:"status"`
	Field     string           `json:"field,omitempty"`
	RequestID string           `json:"requestId,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Code      string           `json:"code,omitempty"`
	Details   string           `json:"details,omitempty"`
	Upstream  *Upstream        `json:"upstream,omitempty"`
	Request   *RequestSnapshot `json:"request,omitempty"`
}

// Normalize classifies err into an Envelope and derives its HTTP status.
func Normalize(err error) Envelope {
	var (
		st *StatusError
		ve *ValidationError
		ue *UpstreamError
		se *SynthesisError
	)
	switch {
	case err == nil:
		return Envelope{Kind: KindInternal, Message: "unknown error", Status: http.StatusInternalServerError}

	case errors.As(err, &st):
		kind := KindInternal
		if st.Status >= 400 && st.Status < 500 {
			kind = KindValidation
		}
		return Envelope{Kind: kind, Message: st.Detail, Status: st.Status}

	case errors.As(err, &ve):
		return Envelope{
			Kind:    KindValidation,
			Message: ve.Error(),
			Status:  http.StatusBadRequest,
			Field:   ve.Field,
		}

	case errors.As(err, &ue):
		env := Envelope{
			Kind:    KindUpstream,
			Message: ue.Error(),
			Status:  upstreamStatus(ue.StatusCode),
		}
		if ue.Request != nil || ue.Response != nil {
			env.Upstream = &Upstream{Request: ue.Request, Response: ue.Response}
		}
		return env

	case errors.As(err, &se):
		return Envelope{
			Kind:    KindSynthesis,
			Message: se.Error(),
			Status:  http.StatusBadGateway,
			Reason:  se.Reason,
			Code:    se.Code,
			Details: se.Details,
		}

	default:
		return Envelope{Kind: KindInternal, Message: err.Error(), Status: http.StatusInternalServerError}
	}
}

// upstreamStatus passes provider error statuses through and maps everything
// else to 502.
func upstreamStatus(code int) int {
	if code >= 400 && code <= 599 {
		return code
	}
	return http.StatusBadGateway
}
