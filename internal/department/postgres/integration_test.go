//go:build integration

package postgres_test

import (
	"context"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	departmentDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/department"
	employeeDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/employee-management/internal/department"
	"github.com/frahmantamala/employee-management/internal/department/postgres"
	employeePostgres "github.com/frahmantamala/employee-management/internal/employee/postgres"
)

var _ = Describe("DepartmentRepository on postgres", Ordered, Label("integration"), func() {
	var (
		ctx       context.Context
		container *tcpostgres.PostgresContainer
		db        *sqlx.DB
		gdb       *gorm.DB
		repo      *postgres.DepartmentRepository
	)

	BeforeAll(func() {
		ctx = context.Background()

		var err error
		container, err = tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("employees"),
			tcpostgres.WithUsername("employees"),
			tcpostgres.WithPassword("employees"),
			tcpostgres.BasicWaitStrategies(),
		)
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(func() {
			Expect(testcontainers.TerminateContainer(container)).To(Succeed())
		})

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).ToNot(HaveOccurred())

		db, err = sqlx.Connect("pgx", dsn)
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(db.Close)

		goose.SetTableName("schema_migrations")
		Expect(goose.SetDialect("postgres")).To(Succeed())
		Expect(goose.UpContext(ctx, db.DB, "../../../db/migrations")).To(Succeed())

		gdb, err = gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).ToNot(HaveOccurred())
		repo = postgres.NewDepartmentRepository(gdb)
	})

	BeforeEach(func() {
		Expect(gdb.Exec("TRUNCATE employees, departments RESTART IDENTITY CASCADE").Error).To(Succeed())
	})

	It("should translate the unique name constraint", func() {
		Expect(repo.Create(ctx, &departmentDatamodel.Department{Name: "Engineering"})).To(Succeed())

		err := repo.Create(ctx, &departmentDatamodel.Department{Name: "Engineering"})

		Expect(err).To(MatchError(department.ErrDepartmentNameTaken))
	})

	It("should refuse deleting a referenced department", func() {
		// Given
		d := &departmentDatamodel.Department{Name: "Engineering"}
		Expect(repo.Create(ctx, d)).To(Succeed())
		employees := employeePostgres.NewEmployeeRepository(gdb)
		Expect(employees.Create(ctx, &employeeDatamodel.Employee{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@company.com", Status: "ACTIVE", DepartmentID: &d.ID,
		})).To(Succeed())

		// When
		err := repo.Delete(ctx, d.ID)

		// Then
		Expect(err).To(MatchError(department.ErrDepartmentInUse))
		count, err := employees.CountByDepartmentID(ctx, d.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(count).To(Equal(int64(1)))
	})

	It("should reject an unknown department through the foreign key", func() {
		missing := int64(404)
		employees := employeePostgres.NewEmployeeRepository(gdb)

		err := employees.Create(ctx, &employeeDatamodel.Employee{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@company.com", Status: "ACTIVE", DepartmentID: &missing,
		})

		Expect(err).To(HaveOccurred())
	})

	It("should enforce the status check constraint", func() {
		err := gdb.WithContext(ctx).Exec(
			"INSERT INTO employees (first_name, last_name, email, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			"Ada", "Lovelace", "ada@company.com", "RETIRED", time.Now(), time.Now(),
		).Error

		Expect(err).To(HaveOccurred())
	})
})
