// Package app wires configuration, storage and the remote client into the pieces the CLI runs.
package app

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"hrconsole/internal/config"
	"hrconsole/internal/db"
	"hrconsole/internal/engine"
	"hrconsole/internal/listform"
	"hrconsole/internal/migrate"
	"hrconsole/internal/schema"
	hrsdk "hrconsole/sdk/go"
)

// Overrides are flag or environment values layered over hrconsole.yml. Empty fields keep the
// file value.
type Overrides struct {
	ConfigPath string
	APIURL     string
	Timeout    time.Duration
	LogLevel   string
}

// LoadConfig reads the workspace config (or the explicit path) and applies overrides.
func LoadConfig(workspace string, o Overrides) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, err = config.FromFile(o.ConfigPath)
	} else {
		cfg, err = config.LoadOptional(workspace)
	}
	if err != nil {
		return nil, err
	}
	if o.APIURL != "" {
		cfg.API.BaseURL = strings.TrimSpace(o.APIURL)
	}
	if o.Timeout > 0 {
		cfg.API.Timeout = o.Timeout
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger builds the slog logger described by the log section.
func NewLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	lvl, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// OpenEngine opens and migrates the workspace database. The caller closes the returned DB.
func OpenEngine(workspace string) (engine.Engine, *sql.DB, error) {
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return engine.Engine{}, nil, err
	}
	if _, err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return engine.Engine{}, nil, fmt.Errorf("migrate %s: %w", db.Path(workspace), err)
	}
	return engine.New(conn), conn, nil
}

// NewClient returns an HR API client for the api section.
func NewClient(cfg *config.Config) *hrsdk.Client {
	c := hrsdk.New(cfg.API.BaseURL)
	c.Timeout = cfg.API.Timeout
	return c
}

// Controller builds the list-form controller for resource. Schemas with a reference field get
// the referenced collection as their option source.
func Controller(client *hrsdk.Client, resource string, opts ...listform.Option) (*listform.Controller, error) {
	s, ok := schema.Lookup(resource)
	if !ok {
		return nil, fmt.Errorf("unknown resource %q (want one of %s)", resource, strings.Join(schema.Resources(), ", "))
	}
	coll := client.Collection(s.Resource, s.FetchMessage)
	if s.Reference != nil {
		refMsg := s.Reference.FetchMessage
		if ref, ok := schema.Lookup(s.Reference.Resource); ok && refMsg == "" {
			refMsg = ref.FetchMessage
		}
		opts = append([]listform.Option{listform.WithReferences(client.Collection(s.Reference.Resource, refMsg))}, opts...)
	}
	return listform.New(s, coll, opts...), nil
}
