package app

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/goshen/internal/pkg/jwt"
	"github.com/shandysiswandi/goshen/internal/twofactor/outbound/db"
)

// Migrate applies the embedded schema to the configured database.
func Migrate(ctx context.Context, configPath string) error {
	a := newApp(configPath)
	defer a.cancel()

	a.initConfig()
	defer a.config.Close()

	a.initDatabase()
	defer a.dbConn.Close()

	if err := db.Migrate(ctx, a.dbConn); err != nil {
		return err
	}

	slog.InfoContext(ctx, "schema applied")

	return nil
}

// IssueToken mints a session token with the configured JWT secret. It is
// meant for local development where no identity provider runs.
func IssueToken(configPath string, identity jwt.Identity) (string, error) {
	a := newApp(configPath)
	defer a.cancel()

	a.initConfig()
	defer a.config.Close()

	a.initLibraries()
	a.initJWT()

	return a.jwt.Generate(identity)
}
