// Package db ships the SQL schema inside the binary.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
