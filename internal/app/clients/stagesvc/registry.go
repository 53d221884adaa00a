// internal/app/clients/stagesvc/registry.go
package stagesvc

import "net/http"

// forwarded lists the request headers carried through to sibling services.
var forwarded = []string{"Authorization", "X-Request-Id", "X-User-Id", "X-User-Role"}

// ForwardHeaders picks the headers worth forwarding from an inbound request.
func ForwardHeaders(h http.Header) http.Header {
	out := http.Header{}
	for _, k := range forwarded {
		if v := h.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

// Registry holds the configured endpoints of the three stage services and
// builds a per-request client carrying the caller's forwarded headers.
type Registry struct {
	Screening Config
	Loan      Config
	ACAT      Config
}

// ScreeningFor builds a screening client bound to the request's headers.
func (r Registry) ScreeningFor(req *http.Request) *Screening {
	cfg := r.Screening
	cfg.Headers = ForwardHeaders(req.Header)
	return NewScreening(cfg)
}

// LoanFor builds a loan client bound to the request's headers.
func (r Registry) LoanFor(req *http.Request) *Loan {
	cfg := r.Loan
	cfg.Headers = ForwardHeaders(req.Header)
	return NewLoan(cfg)
}

// ACATFor builds an ACAT client bound to the request's headers.
func (r Registry) ACATFor(req *http.Request) *ACAT {
	cfg := r.ACAT
	cfg.Headers = ForwardHeaders(req.Header)
	return NewACAT(cfg)
}
