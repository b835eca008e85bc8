// Package policy decides which runways an airport should use from its latest
// observation. Airports with special procedures get their own Policy in the
// Registry; everything else goes through General.
package policy

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/domain"
)

var (
	// ErrUnsupportedAirport matches airports no policy knows how to handle.
	ErrUnsupportedAirport = errors.New("unsupported airport configuration")
	// ErrInvalidConfiguration matches states a policy should never reach
	// with valid runway data.
	ErrInvalidConfiguration = errors.New("invalid runway configuration")
)

// UnsupportedAirportError is returned for airports with several runway pairs
// and no dedicated policy.
type UnsupportedAirportError struct {
	ICAO  string
	Pairs int
}

func (e *UnsupportedAirportError) Error() string {
	return fmt.Sprintf("%s: %d runway pairs and no dedicated policy", e.ICAO, e.Pairs)
}

func (e *UnsupportedAirportError) Unwrap() error { return ErrUnsupportedAirport }

// ConfigurationError reports runway data a policy cannot work with.
type ConfigurationError struct {
	ICAO   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.ICAO, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// Decision is a policy's runway choice. An empty Selection means the policy
// could not decide.
type Decision struct {
	Source    domain.Source
	Selection domain.Selection
}

// IsEmpty reports whether the policy made no choice.
func (d Decision) IsEmpty() bool { return d.Selection.IsEmpty() }

func computed(sel domain.Selection) Decision {
	return Decision{Source: domain.ComputedFromObservation, Selection: sel}
}

// Policy turns an airport's runways and observation into a Decision.
type Policy interface {
	Decide(a *domain.Airport) (Decision, error)
}

// Options configures the built-in policies.
type Options struct {
	Clock    clockwork.Clock
	Location *time.Location
	// DefaultRunways maps ICAO codes to a runway number used when the wind
	// gives no answer.
	DefaultRunways map[string]int
}

// Registry looks up the policy for an airport by ICAO code.
type Registry struct {
	policies map[string]Policy
	fallback Policy
}

// NewRegistry returns a registry with General as the default policy and the
// dedicated policies for ENGM and ENZV.
func NewRegistry(opts Options) *Registry {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	r := &Registry{
		policies: make(map[string]Policy),
		fallback: General{},
	}
	r.Register("ENGM", NewGardermoen(opts.Clock, opts.Location, opts.DefaultRunways["ENGM"]))
	r.Register("ENZV", Sola{})
	return r
}

// Register installs p for icao, replacing any previous policy.
func (r *Registry) Register(icao string, p Policy) {
	r.policies[icao] = p
}

// Lookup returns the policy used for icao.
func (r *Registry) Lookup(icao string) Policy {
	if p, ok := r.policies[icao]; ok {
		return p
	}
	return r.fallback
}

// Decide runs the airport's policy.
func (r *Registry) Decide(a *domain.Airport) (Decision, error) {
	return r.Lookup(a.ICAO).Decide(a)
}

// DefaultSelection returns the configured fallback for a, {NN: Both}, when
// some runway of the airport carries that number.
func DefaultSelection(a *domain.Airport, number int) (domain.Selection, bool) {
	ident := fmt.Sprintf("%02d", number)
	if !a.HasRunwayPrefix(ident) {
		return domain.Selection{}, false
	}
	return domain.NewSelection(domain.Entry{Ident: ident, Usage: domain.Both}), true
}
