// hasadctl is a terminal console for the Hasad field-operations API. It
// wires the SDK together the way the dashboard did: one session store, one
// transport, one service per resource.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/terzoomedia/hasad-go/internal/coordinator"
	"github.com/terzoomedia/hasad-go/internal/models"
	"github.com/terzoomedia/hasad-go/internal/paging"
	"github.com/terzoomedia/hasad-go/internal/service"
	"github.com/terzoomedia/hasad-go/internal/session"
	"github.com/terzoomedia/hasad-go/internal/transport"
	"github.com/terzoomedia/hasad-go/internal/workflow"
	"github.com/terzoomedia/hasad-go/pkg/config"
	apperrors "github.com/terzoomedia/hasad-go/pkg/errors"
	"github.com/terzoomedia/hasad-go/pkg/export"
	"github.com/terzoomedia/hasad-go/pkg/jobs"
	"github.com/terzoomedia/hasad-go/pkg/logger"
	"github.com/terzoomedia/hasad-go/pkg/storage"
)

type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	session   *session.Store
	auth      *service.AuthService
	clients   *service.ClientService
	workers   *service.WorkerService
	users     *service.UserService
	roles     *service.RoleService
	vehicles  *service.VehicleService
	visits    *service.VisitService
	reports   *service.ReportService
	downloads *storage.Downloads
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	credsPath := cfg.Session.CredentialsFile
	if credsPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			credsPath = filepath.Join(home, ".hasad", "credentials.json")
		}
	}

	sess := session.New(credsPath, cfg.Session.TokenTTL, logr)
	if err := sess.Rehydrate(); err != nil {
		logr.Warn("failed to rehydrate session", zap.Error(err))
	}

	client, err := transport.New(cfg.API, sess, logr,
		transport.WithMetrics(transport.NewMetrics()),
		transport.WithAuthExpiredHook(func() {
			fmt.Fprintln(os.Stderr, "Session expired. Run `hasadctl login` to sign in again.")
		}),
	)
	if err != nil {
		logr.Sugar().Fatalw("failed to build transport", "error", err)
	}

	downloads, err := storage.NewDownloads(cfg.Downloads.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare downloads directory", "error", err)
	}

	validate := validator.New()
	a := &app{
		cfg:       cfg,
		logger:    logr,
		session:   sess,
		auth:      service.NewAuthService(client, sess, validate, logr),
		clients:   service.NewClientService(client, validate, downloads, logr),
		workers:   service.NewWorkerService(client, validate, logr),
		users:     service.NewUserService(client, validate, downloads, logr),
		roles:     service.NewRoleService(client, logr),
		vehicles:  service.NewVehicleService(client, validate, downloads, logr),
		visits:    service.NewVisitService(client, validate, logr),
		reports:   service.NewReportService(client, validate, downloads, logr),
		downloads: downloads,
	}

	if err := a.run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errorMessage(err))
		os.Exit(1)
	}
}

func (a *app) run(args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	ctx := context.Background()

	switch args[0] {
	case "login":
		return a.cmdLogin(ctx, args[1:])
	case "logout":
		a.auth.Logout()
		fmt.Println("Logged out.")
		return nil
	case "whoami":
		return a.cmdWhoami()
	case "lang":
		if len(args) > 1 {
			if err := a.session.SetPreferredLanguage(args[1]); err != nil {
				return err
			}
		}
		lang := a.session.PreferredLanguage()
		if lang == "" {
			lang = "en"
		}
		fmt.Println(lang)
		return nil
	case "clients":
		return a.cmdClients(ctx, args[1:])
	case "workers":
		return a.cmdWorkers(ctx, args[1:])
	case "users":
		return a.cmdUsers(ctx, args[1:])
	case "roles":
		return a.cmdRoles(ctx)
	case "vehicles":
		return a.cmdVehicles(ctx, args[1:])
	case "vehicle-logs":
		return a.cmdVehicleLogs(ctx, args[1:])
	case "visits":
		return a.cmdVisits(ctx, args[1:])
	case "reports":
		return a.cmdReports(ctx, args[1:])
	case "export":
		return a.cmdExportAll(ctx)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Println(`Usage: hasadctl <command> [flags]

Commands:
  login | logout | whoami | lang [code]
  clients   list|get|create|update|delete|export|snapshot
  workers   list|get|create|update|delete|visits
  users     list|get|create|update|delete|export
  roles
  vehicles  list|get|create|update|delete|export|snapshot
  vehicle-logs  list|get|create|update|delete|export
  visits    list|create|complete|calendar
  reports   list|pending|get|create|submit|approve|reject|pdf
  export    (all CSV exports, concurrently)`)
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, msg, err := a.auth.Login(ctx, service.LoginRequest{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Println(msg)
	if user != nil {
		fmt.Printf("Signed in as %s <%s>\n", user.Name, user.Email)
	}
	return nil
}

func (a *app) cmdWhoami() error {
	user := a.session.User()
	if user == nil {
		fmt.Println("Not signed in.")
		return nil
	}
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
	}
	fmt.Printf("%s <%s> roles=[%s]\n", user.Name, user.Email, strings.Join(roles, ", "))
	return nil
}

func listFlags(fs *flag.FlagSet, defaultPerPage int) *models.ListParams {
	params := &models.ListParams{}
	fs.IntVar(&params.Page, "page", 1, "page number")
	fs.IntVar(&params.PerPage, "per-page", defaultPerPage, "items per page")
	fs.StringVar(&params.Query, "q", "", "search term")
	fs.StringVar(&params.Sort, "sort", "", "sort key")
	return params
}

func printPage[T any](page paging.Page[T], describe func(T) string) {
	for _, item := range page.Items {
		fmt.Println(describe(item))
	}
	fmt.Printf("-- page %d/%d, %d total\n", page.CurrentPage, page.LastPage, page.Total)
}

func (a *app) cmdClients(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("clients: subcommand required")
	}
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("clients list", flag.ContinueOnError)
		params := listFlags(fs, a.cfg.API.DefaultPerPage)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		co := coordinator.NewList(a.clients.List, *params, a.logger)
		if err := co.Load(ctx); err != nil {
			return err
		}
		printPage(co.Page(), func(c models.Client) string {
			return fmt.Sprintf("#%d  %s  %s  %s", c.ID, c.Name, c.Email, c.Phone)
		})
		return nil
	case "get":
		id, err := argID(args[1:])
		if err != nil {
			return err
		}
		client, err := a.clients.Get(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("#%d %s\n  email: %s\n  phone: %s\n  address: %s %s %s\n", client.ID, client.Name, client.Email, client.Phone, client.Address, client.City, client.State)
		return nil
	case "create":
		fs := flag.NewFlagSet("clients create", flag.ContinueOnError)
		req := service.CreateClientRequest{}
		fs.StringVar(&req.Name, "name", "", "client name")
		fs.StringVar(&req.Email, "email", "", "client email")
		fs.StringVar(&req.Phone, "phone", "", "client phone")
		fs.StringVar(&req.Address, "address", "", "street address")
		fs.StringVar(&req.City, "city", "", "city")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		client, msg, err := a.clients.Create(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("%s (id=%d)\n", msg, client.ID)
		return nil
	case "update":
		fs := flag.NewFlagSet("clients update", flag.ContinueOnError)
		id := fs.Int("id", 0, "client id")
		req := service.UpdateClientRequest{}
		fs.StringVar(&req.Name, "name", "", "client name")
		fs.StringVar(&req.Email, "email", "", "client email")
		fs.StringVar(&req.Phone, "phone", "", "client phone")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		_, msg, err := a.clients.Update(ctx, *id, req)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "delete":
		id, err := argID(args[1:])
		if err != nil {
			return err
		}
		msg, err := a.clients.Delete(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "export":
		path, err := a.clients.ExportCSV(ctx)
		if err != nil {
			return err
		}
		fmt.Println("Saved", path)
		return nil
	case "snapshot":
		fs := flag.NewFlagSet("clients snapshot", flag.ContinueOnError)
		format := fs.String("format", "csv", "csv or xlsx")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		page, err := a.clients.List(ctx, models.ListParams{})
		if err != nil {
			return err
		}
		data := export.Dataset{Headers: []string{"ID", "Name", "Email", "Phone", "City"}}
		for _, c := range page.Items {
			data.Rows = append(data.Rows, map[string]string{
				"ID": strconv.Itoa(c.ID), "Name": c.Name, "Email": c.Email, "Phone": c.Phone, "City": c.City,
			})
		}
		path, err := a.saveSnapshot("clients", *format, data)
		if err != nil {
			return err
		}
		fmt.Println("Saved", path)
		return nil
	default:
		return fmt.Errorf("clients: unknown subcommand %q", args[0])
	}
}

// saveSnapshot renders a fetched page locally, for backends whose export
// endpoints are unavailable or when a spreadsheet is wanted instead.
func (a *app) saveSnapshot(resource, format string, data export.Dataset) (string, error) {
	switch format {
	case "xlsx":
		raw, err := export.NewXLSXExporter().Render(data, resource)
		if err != nil {
			return "", err
		}
		return a.downloads.Save("", resource+"-snapshot", ".xlsx", raw)
	case "csv":
		raw, err := export.NewCSVExporter().Render(data)
		if err != nil {
			return "", err
		}
		return a.downloads.Save("", resource+"-snapshot", ".csv", raw)
	default:
		return "", fmt.Errorf("unknown snapshot format %q", format)
	}
}

func (a *app) cmdWorkers(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("workers: subcommand required")
	}
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("workers list", flag.ContinueOnError)
		params := listFlags(fs, a.cfg.API.DefaultPerPage)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		page, err := a.workers.List(ctx, *params)
		if err != nil {
			return err
		}
		printPage(page, func(w models.Worker) string {
			return fmt.Sprintf("#%d  %s  %s  %s", w.ID, w.Name, w.Email, w.Role)
		})
		return nil
	case "get":
		id, err := argID(args[1:])
		if err != nil {
			return err
		}
		worker, err := a.workers.Get(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("#%d %s <%s> role=%s\n", worker.ID, worker.Name, worker.Email, worker.Role)
		return nil
	case "create":
		fs := flag.NewFlagSet("workers create", flag.ContinueOnError)
		req := service.CreateWorkerRequest{}
		fs.StringVar(&req.Name, "name", "", "worker name")
		fs.StringVar(&req.Email, "email", "", "worker email")
		fs.StringVar(&req.Password, "password", "", "password")
		fs.StringVar(&req.PasswordConfirmation, "password-confirmation", "", "password confirmation")
		fs.StringVar(&req.Role, "role", "", "role name")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		worker, msg, err := a.workers.Create(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("%s (id=%d)\n", msg, worker.ID)
		return nil
	case "update":
		fs := flag.NewFlagSet("workers update", flag.ContinueOnError)
		id := fs.Int("id", 0, "worker id")
		req := service.UpdateWorkerRequest{}
		fs.StringVar(&req.Name, "name", "", "worker name")
		fs.StringVar(&req.Email, "email", "", "worker email")
		fs.StringVar(&req.Password, "password", "", "new password (optional)")
		fs.StringVar(&req.PasswordConfirmation, "password-confirmation", "", "new password confirmation")
		fs.StringVar(&req.Role, "role", "", "role name")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		_, msg, err := a.workers.Update(ctx, *id, req)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "delete":
		id, err := argID(args[1:])
		if err != nil {
			return err
		}
		msg, err := a.workers.Delete(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "visits":
		fs := flag.NewFlagSet("workers visits", flag.ContinueOnError)
		id := fs.Int("id", 0, "worker id")
		params := listFlags(fs, a.cfg.API.DefaultPerPage)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		page, err := a.workers.Visits(ctx, *id, *params)
		if err != nil {
			return err
		}
		printPage(page, describeVisit)
		return nil
	default:
		return fmt.Errorf("workers: unknown subcommand %q", args[0])
	}
}

func (a *app) cmdUsers(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("users: subcommand required")
	}
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("users list", flag.ContinueOnError)
		params := listFlags(fs, a.cfg.API.DefaultPerPage)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		page, err := a.users.List(ctx, *params)
		if err != nil {
			return err
		}
		printPage(page, func(u models.User) string {
			return fmt.Sprintf("#%d  %s  %s", u.ID, u.Name, u.Email)
		})
		return nil
	case "get":
		id, err := argID(args[1:])
		if err != nil {
			return err
		}
		user, err := a.users.Get(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("#%d %s <%s>\n", user.ID, user.Name, user.Email)
		return nil
	case "create":
		fs := flag.NewFlagSet("users create", flag.ContinueOnError)
		req := service.CreateUserRequest{}
		fs.StringVar(&req.Name, "name", "", "user name")
		fs.StringVar(&req.Email, "email", "", "user email")
		fs.StringVar(&req.Password, "password", "", "password")
		fs.StringVar(&req.PasswordConfirmation, "password-confirmation", "", "password confirmation")
		fs.StringVar(&req.Role, "role", "", "role name")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		user, msg, err := a.users.Create(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("%s (id=%d)\n", msg, user.ID)
		return nil
	case "update":
		fs := flag.NewFlagSet("users update", flag.ContinueOnError)
		id := fs.Int("id", 0, "user id")
		req := service.UpdateUserRequest{}
		fs.StringVar(&req.Name, "name", "", "user name")
		fs.StringVar(&req.Email, "email", "", "user email")
		fs.StringVar(&req.Password, "password", "", "new password (optional)")
		fs.StringVar(&req.PasswordConfirmation, "password-confirmation", "", "new password confirmation")
		fs.StringVar(&req.Role, "role", "", "role name")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		_, msg, err := a.users.Update(ctx, *id, req)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "delete":
		id, err := argID(args[1:])
		if err != nil {
			return err
		}
		msg, err := a.users.Delete(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "export":
		path, err := a.users.ExportCSV(ctx)
		if err != nil {
			return err
		}
		fmt.Println("Saved", path)
		return nil
	default:
		return fmt.Errorf("users: unknown subcommand %q", args[0])
	}
}

func (a *app) cmdRoles(ctx context.Context) error {
	roles, err := a.roles.List(ctx)
	if err != nil {
		return err
	}
	for _, role := range roles {
		fmt.Printf("#%d  %s\n", role.ID, role.Name)
	}
	return nil
}

func (a *app) cmdVehicles(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("vehicles: subcommand required")
	}
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("vehicles list", flag.ContinueOnError)
		params := listFlags(fs, a.cfg.API.DefaultPerPage)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		page, err := a.vehicles.List(ctx, *params)
		if err != nil {
			return err
		}
		printPage(page, func(v models.Vehicle) string {
			return fmt.Sprintf("#%d  %s  %s", v.ID, v.Name, v.PlateNumber)
		})
		return nil
	case "get":
		id, err := argID(args[1:])
		if err != nil {
			return err
		}
		vehicle, err := a.vehicles.Get(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("#%d %s plate=%s assigned_user=%d\n", vehicle.ID, vehicle.Name, vehicle.PlateNumber, vehicle.AssignedUserID)
		return nil
	case "create":
		fs := flag.NewFlagSet("vehicles create", flag.ContinueOnError)
		req := service.CreateVehicleRequest{}
		fs.StringVar(&req.Name, "name", "", "vehicle name")
		fs.StringVar(&req.PlateNumber, "plate", "", "plate number")
		fs.IntVar(&req.AssignedUserID, "assigned-user", 0, "assigned user id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		vehicle, msg, err := a.vehicles.Create(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("%s (id=%d)\n", msg, vehicle.ID)
		return nil
	case "update":
		fs := flag.NewFlagSet("vehicles update", flag.ContinueOnError)
		id := fs.Int("id", 0, "vehicle id")
		req := service.UpdateVehicleRequest{}
		fs.StringVar(&req.Name, "name", "", "vehicle name")
		fs.StringVar(&req.PlateNumber, "plate", "", "plate number")
		fs.IntVar(&req.AssignedUserID, "assigned-user", 0, "assigned user id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		_, msg, err := a.vehicles.Update(ctx, *id, req)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "delete":
		id, err := argID(args[1:])
		if err != nil {
			return err
		}
		msg, err := a.vehicles.Delete(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "export":
		path, err := a.vehicles.ExportCSV(ctx)
		if err != nil {
			return err
		}
		fmt.Println("Saved", path)
		return nil
	case "snapshot":
		fs := flag.NewFlagSet("vehicles snapshot", flag.ContinueOnError)
		format := fs.String("format", "xlsx", "csv or xlsx")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		page, err := a.vehicles.List(ctx, models.ListParams{})
		if err != nil {
			return err
		}
		data := export.Dataset{Headers: []string{"ID", "Name", "Plate", "Assigned User"}}
		for _, v := range page.Items {
			data.Rows = append(data.Rows, map[string]string{
				"ID": strconv.Itoa(v.ID), "Name": v.Name, "Plate": v.PlateNumber, "Assigned User": strconv.Itoa(v.AssignedUserID),
			})
		}
		path, err := a.saveSnapshot("vehicles", *format, data)
		if err != nil {
			return err
		}
		fmt.Println("Saved", path)
		return nil
	default:
		return fmt.Errorf("vehicles: unknown subcommand %q", args[0])
	}
}

func (a *app) cmdVehicleLogs(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("vehicle-logs: subcommand required")
	}
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("vehicle-logs list", flag.ContinueOnError)
		vehicleID := fs.Int("vehicle", 0, "filter by vehicle id")
		params := listFlags(fs, a.cfg.API.DefaultPerPage)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		page, err := a.vehicles.ListLogs(ctx, *vehicleID, *params)
		if err != nil {
			return err
		}
		printPage(page, func(l models.VehicleLog) string {
			return fmt.Sprintf("#%d  vehicle=%d  %s  %.0fkm  %.1fL", l.ID, l.VehicleID, l.Month, l.Kilometers, l.FuelLiters)
		})
		return nil
	case "get":
		id, err := argID(args[1:])
		if err != nil {
			return err
		}
		log, err := a.vehicles.GetLog(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("#%d vehicle=%d month=%s km=%.0f fuel=%.1fL maintenance=%.2f\n", log.ID, log.VehicleID, log.Month, log.Kilometers, log.FuelLiters, log.MaintenanceCost)
		return nil
	case "create":
		fs := flag.NewFlagSet("vehicle-logs create", flag.ContinueOnError)
		req := service.CreateVehicleLogRequest{}
		fs.IntVar(&req.VehicleID, "vehicle", 0, "vehicle id")
		fs.StringVar(&req.Month, "month", "", "month (YYYY-MM)")
		fs.Float64Var(&req.Kilometers, "km", 0, "kilometers driven")
		fs.Float64Var(&req.FuelLiters, "fuel", 0, "fuel liters")
		fs.Float64Var(&req.MaintenanceCost, "maintenance", 0, "maintenance cost")
		fs.StringVar(&req.Notes, "notes", "", "notes")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		log, msg, err := a.vehicles.CreateLog(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("%s (id=%d)\n", msg, log.ID)
		return nil
	case "update":
		fs := flag.NewFlagSet("vehicle-logs update", flag.ContinueOnError)
		id := fs.Int("id", 0, "vehicle log id")
		req := service.UpdateVehicleLogRequest{}
		km := fs.Float64("km", -1, "kilometers driven")
		fuel := fs.Float64("fuel", -1, "fuel liters")
		maintenance := fs.Float64("maintenance", -1, "maintenance cost")
		fs.IntVar(&req.VehicleID, "vehicle", 0, "vehicle id")
		fs.StringVar(&req.Month, "month", "", "month (YYYY-MM)")
		fs.StringVar(&req.Notes, "notes", "", "notes")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *km >= 0 {
			req.Kilometers = km
		}
		if *fuel >= 0 {
			req.FuelLiters = fuel
		}
		if *maintenance >= 0 {
			req.MaintenanceCost = maintenance
		}
		_, msg, err := a.vehicles.UpdateLog(ctx, *id, req)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "delete":
		id, err := argID(args[1:])
		if err != nil {
			return err
		}
		msg, err := a.vehicles.DeleteLog(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "export":
		fs := flag.NewFlagSet("vehicle-logs export", flag.ContinueOnError)
		vehicleID := fs.Int("vehicle", 0, "filter by vehicle id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		path, err := a.vehicles.ExportLogsCSV(ctx, *vehicleID)
		if err != nil {
			return err
		}
		fmt.Println("Saved", path)
		return nil
	default:
		return fmt.Errorf("vehicle-logs: unknown subcommand %q", args[0])
	}
}

func (a *app) cmdVisits(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("visits: subcommand required")
	}
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("visits list", flag.ContinueOnError)
		params := listFlags(fs, a.cfg.API.DefaultPerPage)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		page, err := a.visits.List(ctx, *params)
		if err != nil {
			return err
		}
		printPage(page, describeVisit)
		return nil
	case "create":
		fs := flag.NewFlagSet("visits create", flag.ContinueOnError)
		req := service.CreateVisitRequest{}
		fs.IntVar(&req.ClientID, "client", 0, "client id")
		fs.IntVar(&req.AssignedUserID, "worker", 0, "assigned worker id")
		fs.StringVar(&req.Service, "service", "", "service description")
		fs.StringVar(&req.Status, "status", "scheduled", "visit status")
		fs.StringVar(&req.ScheduledAt, "at", "", "scheduled time")
		fs.StringVar(&req.Notes, "notes", "", "notes")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		visit, msg, err := a.visits.Create(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("%s (id=%d)\n", msg, visit.ID)
		return nil
	case "complete":
		id, err := argID(args[1:])
		if err != nil {
			return err
		}
		// Fetch first so the idempotency guard sees the current status.
		page, err := a.visits.List(ctx, models.ListParams{})
		if err != nil {
			return err
		}
		var target *models.Visit
		for i := range page.Items {
			if page.Items[i].ID == id {
				target = &page.Items[i]
				break
			}
		}
		if target == nil {
			return apperrors.Clone(apperrors.ErrNotFound, fmt.Sprintf("visit %d not found", id))
		}
		if !coordinator.VisitCompletable(*target) {
			fmt.Println("Visit is already", target.Status)
			return nil
		}
		_, msg, err := a.visits.Complete(ctx, *target)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "calendar":
		fs := flag.NewFlagSet("visits calendar", flag.ContinueOnError)
		from := fs.String("from", "", "start date (YYYY-MM-DD)")
		to := fs.String("to", "", "end date (YYYY-MM-DD)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		items, err := a.visits.Calendar(ctx, *from, *to)
		if err != nil {
			return err
		}
		for _, item := range items {
			fmt.Printf("%v  %s  %s\n", item.ID, item.Start, item.Title)
		}
		return nil
	default:
		return fmt.Errorf("visits: unknown subcommand %q", args[0])
	}
}

func (a *app) cmdReports(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("reports: subcommand required")
	}
	switch args[0] {
	case "list", "pending":
		fs := flag.NewFlagSet("reports list", flag.ContinueOnError)
		params := listFlags(fs, a.cfg.API.DefaultPerPage)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		fetch := a.reports.List
		if args[0] == "pending" {
			fetch = a.reports.PendingApproval
		}
		page, err := fetch(ctx, *params)
		if err != nil {
			return err
		}
		printPage(page, func(r models.ServiceReport) string {
			actions := coordinator.ReportActions(r)
			names := make([]string, len(actions))
			for i, act := range actions {
				names[i] = string(act)
			}
			return fmt.Sprintf("#%d  %s  %s  [%s]", r.ID, r.ClientName, r.Status, strings.Join(names, " "))
		})
		return nil
	case "get":
		id, err := argID(args[1:])
		if err != nil {
			return err
		}
		detail := coordinator.NewDetail(id, a.reports.Get)
		if err := detail.Load(ctx); err != nil {
			return err
		}
		report, _ := detail.Entity()
		fmt.Printf("#%d %s status=%s location=%s\n", report.ID, report.ClientName, report.Status, report.ServiceLocation)
		if report.RejectionReason != nil {
			fmt.Println("  rejection reason:", *report.RejectionReason)
		}
		return nil
	case "create":
		fs := flag.NewFlagSet("reports create", flag.ContinueOnError)
		req := service.CreateReportRequest{}
		fs.IntVar(&req.ClientID, "client", 0, "client id")
		visitID := fs.Int("visit", 0, "visit id (optional)")
		workerID := fs.Int("worker", 0, "assigned worker id (optional)")
		fs.StringVar(&req.ReportedAt, "at", "", "report timestamp")
		fs.StringVar(&req.ServiceLocation, "location", "", "service location")
		serviceTypes := fs.String("types", "", "comma-separated service types")
		observations := fs.String("observations", "", "comma-separated observations")
		fs.StringVar(&req.Description, "description", "", "description")
		fs.StringVar(&req.ActionsTaken, "actions", "", "actions taken")
		fs.StringVar(&req.Recommendations, "recommendations", "", "recommendations")
		rating := fs.Int("rating", 0, "rating 1-5 (optional)")
		images := fs.String("images", "", "comma-separated image file paths")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *visitID > 0 {
			req.VisitID = visitID
		}
		if *workerID > 0 {
			req.AssignedUserID = workerID
		}
		if *rating > 0 {
			req.Rating = rating
		}
		req.ServiceTypes = splitList(*serviceTypes)
		req.Observations = splitList(*observations)
		for _, path := range splitList(*images) {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read image %s: %w", path, err)
			}
			req.Images = append(req.Images, service.ReportImage{Filename: filepath.Base(path), Data: data})
		}
		report, msg, err := a.reports.Create(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("%s (id=%d)\n", msg, report.ID)
		return nil
	case "submit", "approve":
		id, err := argID(args[1:])
		if err != nil {
			return err
		}
		report, err := a.reports.Get(ctx, id)
		if err != nil {
			return err
		}
		var msg string
		if args[0] == "submit" {
			_, msg, err = a.reports.Submit(ctx, report)
		} else {
			_, msg, err = a.reports.Approve(ctx, report)
		}
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "reject":
		fs := flag.NewFlagSet("reports reject", flag.ContinueOnError)
		id := fs.Int("id", 0, "report id")
		reason := fs.String("reason", "", "rejection reason")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		report, err := a.reports.Get(ctx, *id)
		if err != nil {
			return err
		}
		finalReason := *reason
		if finalReason == "" {
			finalReason, err = promptReason()
			if err != nil {
				return err
			}
		}
		if !workflow.ValidReason(finalReason) {
			// Human cancelled or left it empty: no call, no state change.
			fmt.Println("Rejection cancelled.")
			return nil
		}
		_, msg, err := a.reports.Reject(ctx, report, finalReason)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "pdf":
		id, err := argID(args[1:])
		if err != nil {
			return err
		}
		path, err := a.reports.DownloadPDF(ctx, id)
		if err != nil {
			// Older backends have no PDF endpoint; render locally instead.
			report, getErr := a.reports.Get(ctx, id)
			if getErr != nil {
				return err
			}
			path, err = a.reports.RenderPDF(report)
			if err != nil {
				return err
			}
		}
		fmt.Println("Saved", path)
		return nil
	default:
		return fmt.Errorf("reports: unknown subcommand %q", args[0])
	}
}

// cmdExportAll downloads every CSV export concurrently through the task
// queue, retrying transient failures.
func (a *app) cmdExportAll(ctx context.Context) error {
	queue := jobs.NewQueue("exports", jobs.QueueConfig{
		Workers:    a.cfg.Export.WorkerConcurrency,
		MaxRetries: a.cfg.Export.WorkerRetries,
		RetryDelay: a.cfg.Export.RetryDelay,
		Logger:     a.logger,
	})
	queue.Start(ctx)
	defer queue.Stop()

	tasks := []jobs.Task{
		{Name: "clients", Run: func(ctx context.Context) error {
			path, err := a.clients.ExportCSV(ctx)
			if err == nil {
				fmt.Println("Saved", path)
			}
			return err
		}},
		{Name: "users", Run: func(ctx context.Context) error {
			path, err := a.users.ExportCSV(ctx)
			if err == nil {
				fmt.Println("Saved", path)
			}
			return err
		}},
		{Name: "vehicles", Run: func(ctx context.Context) error {
			path, err := a.vehicles.ExportCSV(ctx)
			if err == nil {
				fmt.Println("Saved", path)
			}
			return err
		}},
		{Name: "vehicle-logs", Run: func(ctx context.Context) error {
			path, err := a.vehicles.ExportLogsCSV(ctx, 0)
			if err == nil {
				fmt.Println("Saved", path)
			}
			return err
		}},
	}
	for _, task := range tasks {
		if err := queue.Enqueue(task); err != nil {
			return err
		}
	}
	queue.Wait()
	return nil
}

// promptReason blocks for a human-supplied rejection reason, the terminal
// equivalent of the dashboard's prompt dialog.
func promptReason() (string, error) {
	fmt.Print("Rejection reason (empty to cancel): ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", nil
	}
	return strings.TrimSpace(line), nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func describeVisit(v models.Visit) string {
	return fmt.Sprintf("#%d  %s  %s  client=%s  at=%s", v.ID, v.Service, v.Status, v.ClientName, v.ScheduledAt)
}

func argID(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("id argument required")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, apperrors.Clone(apperrors.ErrValidation, fmt.Sprintf("invalid id %q", args[0]))
	}
	return id, nil
}

func errorMessage(err error) string {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
