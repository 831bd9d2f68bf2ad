// internal/envtable/sql.go
//
// Environment table from a control-plane database.
//
// Context
// -------
// Shared QA labs keep the table in MySQL so every runner sees the same
// environments without shipping a file:
//
//	CREATE TABLE environment (
//	    name               VARCHAR(64)  PRIMARY KEY,
//	    label              VARCHAR(128) NOT NULL,
//	    protocol           VARCHAR(16)  NULL,
//	    environment_prefix VARCHAR(64)  NULL,
//	    subdomain          VARCHAR(128) NULL,
//	    domain             VARCHAR(256) NULL,
//	    base_url           VARCHAR(512) NULL
//	);
//	CREATE TABLE environment_path (
//	    environment VARCHAR(64)  NOT NULL,
//	    path_key    VARCHAR(64)  NOT NULL,
//	    path        VARCHAR(512) NOT NULL,
//	    PRIMARY KEY (environment, path_key)
//	);
//	CREATE TABLE environment_credential (
//	    environment    VARCHAR(64)  NOT NULL,
//	    credential_key VARCHAR(64)  NOT NULL,
//	    username       VARCHAR(128) NOT NULL,
//	    password       VARCHAR(512) NOT NULL,
//	    PRIMARY KEY (environment, credential_key)
//	);
//
// Workflow
// --------
//  1. One SELECT per table, all under the caller's context.
//  2. Rows are folded into envconfig.Table.
//  3. `url_parts` is set when any of its four columns is non-empty, so a
//     half-filled row surfaces as ErrMissingField during validation rather
//     than silently falling back to base_url.
//
// Notes
// -----
//   - Path and credential rows for an unknown environment are an error.
//   - Errors are returned wrapped; logging is the caller's call.
package envtable

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/uiauto/internal/envconfig"
)

const (
	qEnvironments = `SELECT name, label, protocol, environment_prefix, subdomain, domain, base_url FROM environment ORDER BY name`
	qPaths        = `SELECT environment, path_key, path FROM environment_path`
	qCredentials  = `SELECT environment, credential_key, username, password FROM environment_credential`
)

type environmentRow struct {
	Name              string         `db:"name"`
	Label             string         `db:"label"`
	Protocol          sql.NullString `db:"protocol"`
	EnvironmentPrefix sql.NullString `db:"environment_prefix"`
	Subdomain         sql.NullString `db:"subdomain"`
	Domain            sql.NullString `db:"domain"`
	BaseURL           sql.NullString `db:"base_url"`
}

type pathRow struct {
	Environment string `db:"environment"`
	Key         string `db:"path_key"`
	Path        string `db:"path"`
}

type credentialRow struct {
	Environment string `db:"environment"`
	Key         string `db:"credential_key"`
	Username    string `db:"username"`
	Password    string `db:"password"`
}

// LoadSQL reads the environment table from db.
func LoadSQL(ctx context.Context, db *sqlx.DB) (envconfig.Table, error) {
	var envRows []environmentRow
	if err := db.SelectContext(ctx, &envRows, qEnvironments); err != nil {
		return nil, fmt.Errorf("select environments: %w", err)
	}

	table := make(envconfig.Table, len(envRows))
	for _, row := range envRows {
		env := envconfig.Environment{
			Name:          row.Label,
			LegacyBaseURL: row.BaseURL.String,
			Paths:         map[string]string{},
			Credentials:   map[string]envconfig.Credential{},
		}
		if row.Protocol.String != "" || row.EnvironmentPrefix.String != "" ||
			row.Subdomain.String != "" || row.Domain.String != "" {
			env.URLParts = &envconfig.URLParts{
				Protocol:          row.Protocol.String,
				EnvironmentPrefix: row.EnvironmentPrefix.String,
				Subdomain:         row.Subdomain.String,
				Domain:            row.Domain.String,
			}
		}
		table[row.Name] = env
	}

	var paths []pathRow
	if err := db.SelectContext(ctx, &paths, qPaths); err != nil {
		return nil, fmt.Errorf("select environment paths: %w", err)
	}
	for _, p := range paths {
		env, ok := table[p.Environment]
		if !ok {
			return nil, fmt.Errorf("path %q references unknown environment %q", p.Key, p.Environment)
		}
		env.Paths[p.Key] = p.Path
	}

	var creds []credentialRow
	if err := db.SelectContext(ctx, &creds, qCredentials); err != nil {
		return nil, fmt.Errorf("select environment credentials: %w", err)
	}
	for _, c := range creds {
		env, ok := table[c.Environment]
		if !ok {
			return nil, fmt.Errorf("credential %q references unknown environment %q", c.Key, c.Environment)
		}
		env.Credentials[c.Key] = envconfig.Credential{Username: c.Username, Password: c.Password}
	}

	return table, nil
}
