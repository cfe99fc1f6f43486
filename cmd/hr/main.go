package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"hrconsole/internal/app"
	"hrconsole/internal/config"
	"hrconsole/internal/console"
	"hrconsole/internal/listform"
	"hrconsole/internal/migrate"
	"hrconsole/internal/schema"
	"hrconsole/internal/server"
	"hrconsole/internal/sheet"
	hrsdk "hrconsole/sdk/go"
)

var rootCmd = &cobra.Command{
	Use:   "hr",
	Short: "HR admin console",
	Long: `hr manages employees, contracts, training, attendance and assets through the HR REST API.
- Each resource has list, create, update, delete, export, import and shell commands.
- The console talks to api.base_url (default http://localhost:3001); 'hr serve' runs a compatible API over a local SQLite workspace.
- Settings come from hrconsole.yml, HRCONSOLE_* environment variables and flags, in increasing priority.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("HRCONSOLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().String("config", "", "config file (default <workspace>/"+config.FileName+")")
	rootCmd.PersistentFlags().String("api-url", "", "HR API base URL (overrides api.base_url)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "request timeout (overrides api.timeout)")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error (overrides log.level)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "confirm deletes without asking")
	for _, name := range []string{"workspace", "config", "api-url", "timeout", "log-level", "json", "yes"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(schemaCmd())
	rootCmd.AddCommand(logCmd())
	for _, resource := range schema.Resources() {
		rootCmd.AddCommand(resourceCmd(resource))
	}
}

func loadConfig() (*config.Config, error) {
	return app.LoadConfig(viper.GetString("workspace"), app.Overrides{
		ConfigPath: viper.GetString("config"),
		APIURL:     viper.GetString("api-url"),
		Timeout:    viper.GetDuration("timeout"),
		LogLevel:   viper.GetString("log-level"),
	})
}

// session is what every resource command needs: config, logger and a controller.
type session struct {
	cfg  *config.Config
	log  *slog.Logger
	ctrl *listform.Controller
}

func withController(resource string, extra []listform.Option, fn func(session) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := app.NewLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	opts := append([]listform.Option{listform.WithLogger(logger)}, extra...)
	ctrl, err := app.Controller(app.NewClient(cfg), resource, opts...)
	if err != nil {
		return err
	}
	logger.Debug("controller ready", "resource", resource, "api", cfg.API.BaseURL)
	return fn(session{cfg: cfg, log: logger, ctrl: ctrl})
}

func resourceCmd(resource string) *cobra.Command {
	s, _ := schema.Lookup(resource)
	cmd := &cobra.Command{
		Use:   resource,
		Short: fmt.Sprintf("Manage %s records", s.Name),
	}
	cmd.AddCommand(resourceListCmd(resource))
	cmd.AddCommand(resourceCreateCmd(resource))
	cmd.AddCommand(resourceUpdateCmd(resource))
	cmd.AddCommand(resourceDeleteCmd(resource))
	cmd.AddCommand(resourceExportCmd(resource))
	cmd.AddCommand(resourceImportCmd(resource))
	cmd.AddCommand(resourceShellCmd(resource))
	return cmd
}

func resourceListCmd(resource string) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List or search records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(resource, nil, func(ss session) error {
				if err := ss.ctrl.Search(cmd.Context(), search); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(ss.ctrl.Items())
				}
				console.RenderList(os.Stdout, ss.ctrl.Schema(), ss.ctrl.Items())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "server-side search term")
	return cmd
}

func resourceCreateCmd(resource string) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a record",
		Example: fmt.Sprintf("  hr %s create %s", resource, exampleSets(resource)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(resource, nil, func(ss session) error {
				if err := applySets(ss.ctrl, sets); err != nil {
					return err
				}
				return submit(cmd.Context(), ss.ctrl, 0)
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field value as key=value (repeatable)")
	return cmd
}

func resourceUpdateCmd(resource string) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a record; unset fields keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withController(resource, nil, func(ss session) error {
				if err := ss.ctrl.Search(cmd.Context(), ""); err != nil {
					return err
				}
				rec, ok := findRecord(ss.ctrl, id)
				if !ok {
					return fmt.Errorf("%s %d not found", ss.ctrl.Schema().Name, id)
				}
				if err := ss.ctrl.StartEdit(rec); err != nil {
					return err
				}
				if err := applySets(ss.ctrl, sets); err != nil {
					return err
				}
				return submit(cmd.Context(), ss.ctrl, id)
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field value as key=value (repeatable)")
	return cmd
}

func resourceDeleteCmd(resource string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, _ := schema.Lookup(resource)
			confirm := console.Prompt(s, os.Stdin, os.Stdout)
			if viper.GetBool("yes") {
				confirm = nil
			}
			return withController(resource, []listform.Option{listform.WithConfirm(confirm)}, func(ss session) error {
				// The list only names the record in the prompt.
				if err := ss.ctrl.Search(cmd.Context(), ""); err != nil {
					ss.log.Debug("list before delete failed", "err", err)
				}
				removed, err := ss.ctrl.Remove(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Println("kept")
					return nil
				}
				fmt.Printf("deleted %s %d\n", ss.ctrl.Schema().Name, id)
				return nil
			})
		},
	}
}

func resourceExportCmd(resource string) *cobra.Command {
	var out, search string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export records to an .xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(resource, nil, func(ss session) error {
				if err := ss.ctrl.Search(cmd.Context(), search); err != nil {
					return err
				}
				path := out
				if path == "" {
					path = filepath.Join(ss.cfg.Export.Dir, resource+".xlsx")
				}
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				items := ss.ctrl.Items()
				if err := sheet.Export(f, ss.ctrl.Schema(), items); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				ss.log.Info("exported", "resource", resource, "rows", len(items), "path", path)
				fmt.Printf("wrote %d %s to %s\n", len(items), resource, path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <export.dir>/<resource>.xlsx)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "export only matching records")
	return cmd
}

func resourceImportCmd(resource string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Create or update records from a workbook; rows with an id update",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return withController(resource, nil, func(ss session) error {
				res, err := sheet.Import(cmd.Context(), ss.ctrl, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					if err := printJSON(importSummary(res)); err != nil {
						return err
					}
				} else {
					fmt.Printf("created %d, updated %d, failed %d\n", res.Created, res.Updated, len(res.Errors))
					if len(res.Errors) > 0 {
						tw := table.NewWriter()
						tw.SetOutputMirror(os.Stdout)
						tw.AppendHeader(table.Row{"Row", "Error"})
						for _, re := range res.Errors {
							tw.AppendRow(table.Row{re.Row, re.Err.Error()})
						}
						tw.Render()
					}
				}
				if len(res.Errors) > 0 {
					return fmt.Errorf("%d row(s) not imported", len(res.Errors))
				}
				return nil
			})
		},
	}
}

func resourceShellCmd(resource string) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive list and form",
		RunE: func(cmd *cobra.Command, args []string) error {
			sh := console.NewShell(os.Stdin, os.Stdout, viper.GetBool("yes"))
			return withController(resource, sh.Options(), func(ss session) error {
				fmt.Println("type help for commands")
				err := sh.Run(cmd.Context(), ss.ctrl)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HR API server over the workspace database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := app.NewLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if basePath == "" {
				basePath = cfg.Server.BasePath
			}
			e, conn, err := app.OpenEngine(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			defer conn.Close()
			version, err := migrate.Current(conn)
			if err != nil {
				return err
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, AllowOrigin: cfg.Server.AllowOrigin, Logger: logger})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			logger.Info("serving HR API", "addr", addr, "base_path", basePath, "docs", basePath+"/docs", "schema_version", version)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (overrides server.base_path)")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Console configuration",
	}
	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default " + config.FileName,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(cfg)
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema [resource]",
		Short:     "Describe the fields of one or all resources",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: schema.Resources(),
		RunE: func(cmd *cobra.Command, args []string) error {
			resources := schema.Resources()
			if len(args) == 1 {
				resources = args
			}
			for _, r := range resources {
				s, ok := schema.Lookup(r)
				if !ok {
					return fmt.Errorf("unknown resource %q", r)
				}
				if viper.GetBool("json") {
					if err := printJSON(describeFields(s)); err != nil {
						return err
					}
					continue
				}
				console.RenderSchema(os.Stdout, s)
			}
			return nil
		},
	}
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Audit event log",
		Long:  "Every create, update and delete the API accepts is recorded as an event.",
	}
	cmd.AddCommand(logTailCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	var n int
	var resource string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			events, err := app.NewClient(cfg).Events(cmd.Context(), n, resource)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(events)
			}
			console.RenderEvents(os.Stdout, events)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "n", "n", 20, "number of events")
	cmd.Flags().StringVar(&resource, "resource", "", "only events of this resource")
	return cmd
}

func applySets(ctrl *listform.Controller, sets []string) error {
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--set %q: expected key=value", kv)
		}
		if err := ctrl.ChangeField(strings.TrimSpace(key), value); err != nil {
			return err
		}
	}
	return nil
}

func submit(ctx context.Context, ctrl *listform.Controller, id int64) error {
	s := ctrl.Schema()
	if missing := s.MissingRequired(ctrl.Draft()); len(missing) > 0 {
		return fmt.Errorf("required: %s", strings.Join(missing, ", "))
	}
	before := len(ctrl.Items())
	if err := ctrl.Submit(ctx); err != nil {
		return err
	}
	items := ctrl.Items()
	if id == 0 && len(items) > before {
		return printRecord(s, items[0])
	}
	if id != 0 {
		if rec, ok := findRecord(ctrl, id); ok {
			return printRecord(s, rec)
		}
	}
	fmt.Println("saved")
	return nil
}

func printRecord(s *schema.Schema, rec hrsdk.Record) error {
	if viper.GetBool("json") {
		return printJSON(rec)
	}
	console.RenderList(os.Stdout, s, []hrsdk.Record{rec})
	return nil
}

func findRecord(ctrl *listform.Controller, id int64) (hrsdk.Record, bool) {
	for _, r := range ctrl.Items() {
		if rid, ok := r.ID(); ok && rid == id {
			return r, true
		}
	}
	return nil, false
}

func parseID(s string) (int64, error) {
	var id int64
	if _, err := fmt.Sscan(strings.TrimSpace(s), &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("expected a record id, got %q", s)
	}
	return id, nil
}

func exampleSets(resource string) string {
	s, _ := schema.Lookup(resource)
	var parts []string
	for _, f := range s.Fields {
		if f.Required {
			parts = append(parts, fmt.Sprintf("--set %s=...", f.Key))
		}
	}
	return strings.Join(parts, " ")
}

type fieldInfo struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required"`
	Default  string   `json:"default,omitempty"`
	Options  []string `json:"options,omitempty"`
}

func describeFields(s *schema.Schema) map[string]any {
	fields := make([]fieldInfo, 0, len(s.Fields))
	for _, f := range s.Fields {
		def := f.Default
		if f.DefaultFunc != nil {
			def = "today"
		}
		fields = append(fields, fieldInfo{Key: f.Key, Label: f.Label, Kind: string(f.Kind), Required: f.Required, Default: def, Options: f.Options})
	}
	out := map[string]any{"resource": s.Resource, "name": s.Name, "fields": fields, "columns": s.Columns}
	if s.Reference != nil {
		out["reference"] = map[string]string{"field": s.Reference.Field, "resource": s.Reference.Resource}
	}
	return out
}

type importResult struct {
	Created int         `json:"created"`
	Updated int         `json:"updated"`
	Errors  []rowFailed `json:"errors"`
}

type rowFailed struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

func importSummary(res sheet.Result) importResult {
	out := importResult{Created: res.Created, Updated: res.Updated, Errors: []rowFailed{}}
	for _, re := range res.Errors {
		out.Errors = append(out.Errors, rowFailed{Row: re.Row, Error: re.Err.Error()})
	}
	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
