package lyclicense

// Resolver decides feature access by composing license validation with a
// feature lookup.
//
// Empty feature sets are governed by an explicit policy. The default is
// strict: a valid license whose feature set is empty grants nothing.
// WithAllFeaturesWhenEmpty switches to the legacy demo behavior where an
// empty set grants everything; mixing the two policies across deployments
// is a reliable way to ship entitlement bugs, so pick one and keep it.
type Resolver struct {
	validator          *Validator
	allFeaturesOnEmpty bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithAllFeaturesWhenEmpty makes an empty feature set grant every feature
// instead of none. Legacy/demo deployments only.
func WithAllFeaturesWhenEmpty() ResolverOption {
	return func(r *Resolver) {
		r.allFeaturesOnEmpty = true
	}
}

// NewResolver creates a feature resolver backed by the given validator.
// A nil validator gets the default (no signature check) validator.
func NewResolver(v *Validator, opts ...ResolverOption) *Resolver {
	if v == nil {
		v = NewValidator()
	}
	r := &Resolver{validator: v}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HasFeature reports whether licenseKey grants featureID for pluginID.
// Fail closed: any validation failure, whatever the reason, denies access.
func (r *Resolver) HasFeature(licenseKey, pluginID, featureID string) bool {
	payload, result := r.validator.Validate(licenseKey, pluginID)
	if !result.Valid || payload == nil {
		return false
	}
	if len(payload.Features) == 0 {
		return r.allFeaturesOnEmpty
	}
	for _, f := range payload.Features {
		if f == featureID {
			return true
		}
	}
	return false
}
