package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/NikitaCOEUR/fimcache/internal/auth"
	"github.com/NikitaCOEUR/fimcache/internal/config"
	"github.com/NikitaCOEUR/fimcache/internal/derrors"
	"github.com/NikitaCOEUR/fimcache/internal/logger"
)

// AllowParams contains parameters for the Allow command
type AllowParams struct {
	AuthPath    string
	PathToAllow string
	LogLevel    string
}

// Allow trusts a directory and the endpoints its config declares
func Allow(authPath, pathToAllow string) error {
	return AllowWithParams(AllowParams{
		AuthPath:    authPath,
		PathToAllow: pathToAllow,
		LogLevel:    "warn",
	})
}

// AllowWithParams trusts a directory. Allowing an already trusted directory
// approves its current endpoints.
func AllowWithParams(params AllowParams) error {
	log := logger.New(params.LogLevel, os.Stderr)

	dir, err := filepath.Abs(params.PathToAllow)
	if err != nil {
		return derrors.NewAuthorizationError(params.PathToAllow, "failed to resolve path", err)
	}

	authMgr, err := auth.New(params.AuthPath)
	if err != nil {
		return derrors.NewAuthorizationError(dir, "failed to initialize auth", err)
	}

	endpoints, err := config.New().Endpoints(dir)
	if err != nil {
		return derrors.NewConfigurationError(dir, "failed to read config endpoints", err)
	}

	alreadyAllowed, err := authMgr.IsAllowed(dir)
	if err != nil {
		return derrors.NewAuthorizationError(dir, "failed to check authorization", err)
	}
	if alreadyAllowed && authMgr.EndpointsApproved(dir, endpoints) {
		log.Debug().Msg("already authorized: " + dir)
		return nil
	}

	if err := authMgr.Allow(dir, endpoints); err != nil {
		return derrors.NewAuthorizationError(dir, "failed to authorize", err)
	}

	fmt.Printf("Authorized: %s\n", dir)
	if len(endpoints) > 0 {
		fmt.Println("Approved endpoints:")
		for _, e := range endpoints {
			fmt.Printf("  • %s\n", e)
		}
	}
	return nil
}

// RevokeParams contains parameters for the Revoke command
type RevokeParams struct {
	AuthPath     string
	PathToRevoke string
}

// Revoke removes the trust of a directory
func Revoke(authPath, pathToRevoke string) error {
	return RevokeWithParams(RevokeParams{
		AuthPath:     authPath,
		PathToRevoke: pathToRevoke,
	})
}

// RevokeWithParams removes the trust of a directory
func RevokeWithParams(params RevokeParams) error {
	dir, err := filepath.Abs(params.PathToRevoke)
	if err != nil {
		return derrors.NewAuthorizationError(params.PathToRevoke, "failed to resolve path", err)
	}

	authMgr, err := auth.New(params.AuthPath)
	if err != nil {
		return derrors.NewAuthorizationError(dir, "failed to initialize auth", err)
	}

	if err := authMgr.Revoke(dir); err != nil {
		return derrors.NewAuthorizationError(dir, "failed to revoke", err)
	}

	fmt.Printf("Revoked: %s\n", dir)
	return nil
}

// List displays all authorized directories
func List(authPath string) error {
	authMgr, err := auth.New(authPath)
	if err != nil {
		return derrors.NewAuthorizationError("", "failed to initialize auth", err)
	}

	paths := authMgr.List()
	if len(paths) == 0 {
		fmt.Println("No authorized projects")
		return nil
	}

	fmt.Println("Authorized projects:")
	for _, path := range paths {
		fmt.Printf("  %s\n", path)
	}

	return nil
}
