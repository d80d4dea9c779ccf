package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/auth"
	authPostgres "github.com/frahmantamala/employee-management/internal/auth/postgres"
	"github.com/frahmantamala/employee-management/internal/core/events"
	"github.com/frahmantamala/employee-management/internal/department"
	departmentPostgres "github.com/frahmantamala/employee-management/internal/department/postgres"
	"github.com/frahmantamala/employee-management/internal/employee"
	employeePostgres "github.com/frahmantamala/employee-management/internal/employee/postgres"
	"github.com/frahmantamala/employee-management/internal/gateway"
	"github.com/frahmantamala/employee-management/internal/metrics"
	"github.com/frahmantamala/employee-management/internal/security"
	"github.com/frahmantamala/employee-management/internal/transport"
	"github.com/frahmantamala/employee-management/internal/transport/rest"
	"github.com/frahmantamala/employee-management/internal/transport/swagger"
	"github.com/frahmantamala/employee-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start an HTTP service",
	Long:  `Start one of the HTTP services: auth, employee or gateway`,
}

var authServerCmd = &cobra.Command{
	Use:   "auth",
	Short: "Start the auth service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runService("auth", buildAuthService)
	},
}

var employeeServerCmd = &cobra.Command{
	Use:   "employee",
	Short: "Start the employee and department service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runService("employee", buildEmployeeService)
	},
}

var gatewayServerCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the API gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runService("gateway", buildGateway)
	},
}

var portOverride int

// Dependencies are the process wide resources shared by every service builder.
type Dependencies struct {
	Config  *internal.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	closers []func() error
}

func (d *Dependencies) onClose(fn func() error) {
	d.closers = append(d.closers, fn)
}

// close releases resources in reverse acquisition order.
func (d *Dependencies) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.Error("failed to release resource", "error", err)
		}
	}
}

type serviceBuilder func(ctx context.Context, deps *Dependencies) (http.Handler, error)

func runService(name string, build serviceBuilder) error {
	config, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if portOverride > 0 {
		config.Server.Port = portOverride
	}

	deps := &Dependencies{
		Config: config,
		Logger: logger.LoggerWrapper().With("service", name),
	}
	if config.Observability.Metrics.Enabled {
		deps.Metrics = metrics.NewMetrics(prometheus.NewRegistry())
	}
	defer deps.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler, err := build(ctx, deps)
	if err != nil {
		return fmt.Errorf("failed to initialize %s: %w", name, err)
	}

	addr := fmt.Sprintf(":%d", config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: config.Server.ReadHeaderTimeout,
		ReadTimeout:       config.Server.ReadTimeout,
		WriteTimeout:      config.Server.WriteTimeout,
		IdleTimeout:       config.Server.IdleTimeout,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		deps.Logger.Info("starting HTTP server", "address", addr)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		deps.Logger.Info("received signal, shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	deps.Logger.Info("server stopped")
	return nil
}

func buildAuthService(_ context.Context, deps *Dependencies) (http.Handler, error) {
	db, gdb, err := openDatabase(deps)
	if err != nil {
		return nil, err
	}

	publisher := newPublisher(deps)
	accessCodec := security.NewCodec(deps.Config.Security.JWTSecret)
	refreshCodec := security.NewCodec(deps.Config.Security.JWTRefreshSecret)

	service := auth.NewService(
		authPostgres.NewUserRepository(gdb),
		accessCodec,
		refreshCodec,
		auth.TokenConfig{
			AccessTTL:  deps.Config.Security.AccessTokenDuration,
			RefreshTTL: deps.Config.Security.RefreshTokenDuration,
			BCryptCost: deps.Config.Security.BCryptCost,
		},
		publisher,
		deps.Logger,
	)
	handler := auth.NewHandler(transport.NewBaseHandler(deps.Logger), service)

	return rest.NewServiceRouter(rest.RouterOptions{
		Service:     "auth",
		Codec:       accessCodec,
		Health:      rest.NewHealthHandler("auth", db),
		Metrics:     deps.Metrics,
		MetricsPath: deps.Config.Observability.Metrics.Path,
		Logger:      deps.Logger,
	}, rest.AuthRoutes(handler)), nil
}

func buildEmployeeService(_ context.Context, deps *Dependencies) (http.Handler, error) {
	db, gdb, err := openDatabase(deps)
	if err != nil {
		return nil, err
	}

	publisher := newPublisher(deps)
	codec := security.NewCodec(deps.Config.Security.JWTSecret)
	base := transport.NewBaseHandler(deps.Logger)

	departmentRepo := departmentPostgres.NewDepartmentRepository(gdb)
	employeeRepo := employeePostgres.NewEmployeeRepository(gdb)

	departmentHandler := department.NewHandler(base, department.NewService(departmentRepo, employeeRepo, publisher, deps.Logger))
	employeeHandler := employee.NewHandler(base, employee.NewService(employeeRepo, departmentRepo, publisher, deps.Logger))

	return rest.NewServiceRouter(rest.RouterOptions{
		Service:     "employee",
		Codec:       codec,
		Health:      rest.NewHealthHandler("employee", db),
		Metrics:     deps.Metrics,
		MetricsPath: deps.Config.Observability.Metrics.Path,
		Logger:      deps.Logger,
	}, rest.EmployeeRoutes(employeeHandler, departmentHandler)), nil
}

func buildGateway(ctx context.Context, deps *Dependencies) (http.Handler, error) {
	if _, err := swagger.Load(ctx); err != nil {
		return nil, err
	}

	cfg := deps.Config.Gateway
	authURL, err := url.Parse(cfg.AuthServiceURL)
	if err != nil {
		return nil, fmt.Errorf("invalid auth service url: %w", err)
	}
	employeeURL, err := url.Parse(cfg.EmployeeServiceURL)
	if err != nil {
		return nil, fmt.Errorf("invalid employee service url: %w", err)
	}

	health := gateway.NewHealthChecker(cfg.HealthTimeout, []gateway.Downstream{
		{Name: "auth", HealthURL: strings.TrimSuffix(cfg.AuthServiceURL, "/") + "/api/auth/health"},
		{Name: "employee", HealthURL: strings.TrimSuffix(cfg.EmployeeServiceURL, "/") + "/health"},
	}, deps.Logger)

	return gateway.NewRouter(gateway.Options{
		Codec:       security.NewCodec(deps.Config.Security.JWTSecret),
		AuthURL:     authURL,
		EmployeeURL: employeeURL,
		Health:      health,
		Metrics:     deps.Metrics,
		MetricsPath: deps.Config.Observability.Metrics.Path,
		Logger:      deps.Logger,
	}), nil
}

// openDatabase opens the shared pool once and hands gorm the same connections.
func openDatabase(deps *Dependencies) (*sqlx.DB, *gorm.DB, error) {
	db, err := initDB(deps.Config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.onClose(db.Close)

	gdb, err := initGorm(db)
	if err != nil {
		return nil, nil, err
	}
	return db, gdb, nil
}

func newPublisher(deps *Dependencies) events.Publisher {
	cfg := deps.Config.Kafka
	if !cfg.Enabled {
		deps.Logger.Info("kafka disabled, entity events will not be published")
		return events.NopPublisher{Logger: deps.Logger}
	}

	var recorder events.Recorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}

	publisher := events.NewKafkaPublisher(
		events.NewKafkaWriter(cfg.Brokers, cfg.WriteTimeout),
		events.KafkaPublisherConfig{
			Topics:       topicsByAggregate(cfg.Topics),
			WriteTimeout: cfg.WriteTimeout,
			MaxWorkers:   cfg.Workers,
			QueueSize:    cfg.QueueSize,
		},
		deps.Logger,
		recorder,
	)
	deps.onClose(publisher.Close)
	return publisher
}

func topicsByAggregate(t internal.TopicsConfig) map[events.Aggregate]string {
	return map[events.Aggregate]string{
		events.AggregateUser:       t.User,
		events.AggregateEmployee:   t.Employee,
		events.AggregateDepartment: t.Department,
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}

func init() {
	httpServerCmd.PersistentFlags().IntVarP(&portOverride, "port", "p", 0, "listen port (overrides config)")

	httpServerCmd.AddCommand(authServerCmd)
	httpServerCmd.AddCommand(employeeServerCmd)
	httpServerCmd.AddCommand(gatewayServerCmd)
}
