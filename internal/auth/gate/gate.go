// Package gate guards protected path prefixes behind credential validation.
//
// Each request is classified first; only protected resources reach the
// validator. Any validation failure, whatever its cause, redirects to the
// login entry point with a next parameter pointing back at the request.
package gate

import (
	"context"
	"fmt"
	"net/http"

	"portfolio/internal/auth"
	"portfolio/internal/observability/logging"
	"portfolio/internal/observability/metrics"
)

// Gate evaluates requests against a Policy using a Validator
type Gate struct {
	policy    Policy
	validator auth.Validator
	logger    *logging.Logger
	metrics   *metrics.Collector
}

// New creates a new gate
func New(policy Policy, validator auth.Validator, logger *logging.Logger, metrics *metrics.Collector) *Gate {
	return &Gate{
		policy:    policy,
		validator: validator,
		logger:    logger.WithModule("auth.gate"),
		metrics:   metrics,
	}
}

// Policy returns the gate's policy
func (g *Gate) Policy() Policy {
	return g.policy
}

// Evaluate decides the outcome for req. It never fails: every error
// becomes a Redirect.
func (g *Gate) Evaluate(ctx context.Context, req Request) Outcome {
	logger := logging.FromContext(ctx, g.logger)

	class := g.policy.Classify(req.Path)
	if class != Protected {
		g.record(class, PassThrough, nil)
		return Outcome{Kind: PassThrough, Class: class}
	}

	result, err := g.validate(ctx, req.Cookies)
	if err != nil {
		location := LoginRedirect(g.policy.LoginPath, req)
		logger.Info("Access denied, redirecting to login",
			"path", req.Path,
			"cause", auth.Cause(err),
			logging.Err(err),
		)
		g.record(class, Redirect, err)
		return Outcome{Kind: Redirect, Class: class, Location: location, Cause: err}
	}

	outcome := Outcome{Kind: PassThrough, Class: class, Identity: result.Identity}
	if len(result.Cookies) > 0 {
		outcome.Kind = PassThroughWithCookies
		outcome.Cookies = result.Cookies
	}

	logger.Debug("Access granted",
		"path", req.Path,
		"subject", result.Identity.Subject,
		"refreshed", logging.CookieNames(result.Cookies),
	)
	g.record(class, outcome.Kind, nil)
	return outcome
}

// validate calls the validator and normalizes every failure mode to an error
func (g *Gate) validate(ctx context.Context, cookies []*http.Cookie) (result *auth.Result, err error) {
	if g.validator == nil {
		return nil, fmt.Errorf("no validator configured: %w", auth.ErrValidatorUnreachable)
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("validator panic: %v: %w", r, auth.ErrValidatorUnreachable)
		}
	}()

	result, err = g.validator.Validate(ctx, cookies)
	if err == nil && (result == nil || result.Identity == nil || result.Identity.Subject == "") {
		err = fmt.Errorf("empty identity: %w", auth.ErrCredentialInvalid)
	}
	g.metrics.RecordAuthentication(g.validator.Name(), err == nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (g *Gate) record(class Class, kind Kind, cause error) {
	g.metrics.RecordGateDecision(class.String(), kind.String(), auth.Cause(cause))
}

// Middleware serializes the gate's outcome onto the HTTP response
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outcome := g.Evaluate(r.Context(), FromHTTP(r))

		switch outcome.Kind {
		case Redirect:
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, outcome.Location, http.StatusTemporaryRedirect)
			return
		case PassThroughWithCookies:
			for _, cookie := range outcome.Cookies {
				http.SetCookie(w, cookie)
			}
		}

		if outcome.Identity != nil {
			r = r.WithContext(auth.ContextWithIdentity(r.Context(), outcome.Identity))
		}
		next.ServeHTTP(w, r)
	})
}
