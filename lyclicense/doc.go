// Package lyclicense issues, signs, and validates software license keys
// that gate feature access for installable plugins.
//
// Install with:
//
//	go get github.com/LycWorks/lyc-license-sdk/lyclicense
//
// A license key string is "LYC-" followed by the base64 of a signed
// envelope: the canonical JSON payload, its signature, and the algorithm
// and hash used. The issuer holds the private key; hosts only ever hold
// the public key and the token.
//
// # Issuing
//
//	kp, err := lyclicense.GenerateKeyPair(lyclicense.AlgRSA2048, 0)
//	issuer, err := lyclicense.NewIssuer(kp.PrivateKeyPEM, lyclicense.AlgRSA2048)
//	key, err := issuer.Issue(ctx, lyclicense.LicensePayload{
//	    PluginID: "grid-export",
//	    Features: []string{"csv"},
//	})
//
// # Validating
//
//	v := lyclicense.NewValidator(lyclicense.WithTrustedPublicKey(kp.PublicKeyPEM))
//	payload, result := v.Validate(key, "grid-export")
//
// # Feature gating
//
//	r := lyclicense.NewResolver(v)
//	if r.HasFeature(key, "grid-export", "csv") { ... }
//
// Every operation is a pure computation over in-memory buffers and is safe
// for concurrent use.
package lyclicense
