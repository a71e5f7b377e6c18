// Package pg bootstraps PostgreSQL access on pgx/v5.
//
// Connect opens a *pgxpool.Pool from Config, retrying with a linear backoff
// that stops as soon as the context is cancelled. Migrate applies goose
// migrations from any fs.FS, so the package that owns a schema can ship it
// as an embed.FS:
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//
//	sub, _ := fs.Sub(migrations, "migrations")
//	if err := pg.Migrate(ctx, pool, sub, cfg, log); err != nil {
//		return err
//	}
//
// The Is*Error helpers classify driver errors without leaking pgconn types
// into callers.
package pg
