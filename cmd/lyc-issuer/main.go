// Command lyc-issuer is the operator tool for the license subsystem:
// it generates signing key pairs, issues LYC- license keys, and checks
// existing keys against a public key.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/LycWorks/lyc-license-sdk/lyclicense"
	"github.com/LycWorks/lyc-license-sdk/lyclicense/issueregistry"
)

func main() {
	var (
		cmdGenKey   = flag.Bool("genkey", false, "generate a signing key pair and write PEM files")
		cmdIssue    = flag.Bool("issue", false, "issue a license key for a plugin")
		cmdValidate = flag.Bool("validate", false, "validate a license key")

		flagEnvFile   = flag.String("env-file", ".env", "path to .env (REGISTRY_DSN enables issuance recording)")
		flagAlg       = flag.String("alg", string(lyclicense.AlgRSA2048), "algorithm: RSA-2048, RSA-4096, ECDSA-P256, ECDSA-P384")
		flagBits      = flag.Int("bits", 0, "RSA key size override (0 = algorithm default)")
		flagOutDir    = flag.String("out-dir", ".", "directory for generated PEM files")
		flagKey       = flag.String("key", "license_key.pem", "private key PEM file (issue)")
		flagPubKey    = flag.String("pubkey", "license_key.pub.pem", "public key PEM file (validate)")
		flagPlugin    = flag.String("plugin", "", "plugin id")
		flagFeatures  = flag.String("features", "", "comma-separated feature ids")
		flagLicensee  = flag.String("licensee", "", "licensee id (optional)")
		flagExpiresIn = flag.String("expires-in", "", "validity window, e.g. 8760h (empty = perpetual)")
		flagLicense   = flag.String("license", "", "license key string (validate)")
	)
	flag.Parse()

	if *flagEnvFile != "" {
		_ = godotenv.Load(*flagEnvFile)
	}

	switch {
	case *cmdGenKey:
		genKey(*flagAlg, *flagBits, *flagOutDir)
	case *cmdIssue:
		issue(*flagKey, *flagAlg, *flagPlugin, *flagFeatures, *flagLicensee, *flagExpiresIn)
	case *cmdValidate:
		validate(*flagPubKey, *flagPlugin, *flagLicense)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func genKey(alg string, bits int, outDir string) {
	kp, err := lyclicense.GenerateKeyPair(lyclicense.Algorithm(alg), bits)
	if err != nil {
		log.Fatalf("generate key pair: %v", err)
	}

	privPath := filepath.Join(outDir, "license_key.pem")
	pubPath := filepath.Join(outDir, "license_key.pub.pem")
	if err := os.WriteFile(privPath, kp.PrivateKeyPEM, 0o600); err != nil {
		log.Fatalf("write private key: %v", err)
	}
	if err := os.WriteFile(pubPath, kp.PublicKeyPEM, 0o644); err != nil {
		log.Fatalf("write public key: %v", err)
	}
	fmt.Printf("wrote %s (keep private) and %s (%s)\n", privPath, pubPath, kp.Algorithm)
}

func issue(keyPath, alg, plugin, features, licensee, expiresIn string) {
	if plugin == "" {
		log.Fatal("issue requires -plugin")
	}
	privPEM, err := os.ReadFile(keyPath)
	if err != nil {
		log.Fatalf("read private key: %v", err)
	}

	ctx := context.Background()
	opts := []lyclicense.IssuerOption{}

	// Record issuances when a registry DSN is configured.
	if dsn := os.Getenv("REGISTRY_DSN"); dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			log.Fatalf("registry pool: %v", err)
		}
		defer pool.Close()
		reg, err := issueregistry.NewPostgresRegistry(ctx, pool)
		if err != nil {
			log.Fatalf("registry: %v", err)
		}
		opts = append(opts, lyclicense.WithIssueRegistry(reg))
	}

	issuer, err := lyclicense.NewIssuer(privPEM, lyclicense.Algorithm(alg), opts...)
	if err != nil {
		log.Fatalf("issuer: %v", err)
	}

	payload := lyclicense.LicensePayload{
		PluginID:   plugin,
		Features:   splitCSV(features),
		LicenseeID: licensee,
		IssuedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if expiresIn != "" {
		d, err := time.ParseDuration(expiresIn)
		if err != nil {
			log.Fatalf("invalid -expires-in: %v", err)
		}
		payload.ExpiresAt = payload.IssuedAt.Add(d)
	}

	key, err := issuer.Issue(ctx, payload)
	if err != nil {
		log.Fatalf("issue: %v", err)
	}
	fmt.Println(key)
}

func validate(pubKeyPath, plugin, license string) {
	if plugin == "" || license == "" {
		log.Fatal("validate requires -plugin and -license")
	}
	pubPEM, err := os.ReadFile(pubKeyPath)
	if err != nil {
		log.Fatalf("read public key: %v", err)
	}

	v := lyclicense.NewValidator(lyclicense.WithTrustedPublicKey(pubPEM))
	payload, result := v.Validate(license, plugin)
	if !result.Valid {
		fmt.Printf("invalid: %s\n", result.Reason)
		os.Exit(1)
	}
	fmt.Printf("valid: plugin=%s features=%s", payload.PluginID, strings.Join(payload.Features, ","))
	if payload.HasExpiry() {
		fmt.Printf(" expires=%s", payload.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Println()
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
