package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"peopleops.org/internal/attendance"
	"peopleops.org/internal/auth"
	"peopleops.org/internal/employee"
	"peopleops.org/internal/httpapi"
	"peopleops.org/internal/leave"
	"peopleops.org/internal/obs"
	"peopleops.org/internal/payroll"
	"peopleops.org/internal/performance"
	"peopleops.org/internal/policy"
	"peopleops.org/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	eval := policy.NewEvaluator(policy.AllowAllDepartments)

	var (
		userStore       auth.UserStore
		employeeStore   employee.Store
		attendanceStore attendance.Store
		leaveStore      leave.Store
		payrollStore    payroll.Store
		goalStore       performance.Store
		probe           httpapi.ReadyProbe
	)
	if dsn := os.Getenv("PEOPLEOPS_PG_DSN"); dsn != "" {
		store, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer store.Close()
		userStore = store
		employeeStore = store
		attendanceStore = store
		leaveStore = store
		payrollStore = store
		goalStore = store
		probe = httpapi.ReadyProbe{DB: store.DB()}
	} else {
		log.Println("PEOPLEOPS_PG_DSN not set, using in-memory stores")
		userStore = auth.NewInMemoryUsers()
		employeeStore = employee.NewInMemory()
		attendanceStore = attendance.NewInMemory()
		leaveStore = leave.NewInMemory()
		payrollStore = payroll.NewInMemory()
		goalStore = performance.NewInMemory()
	}

	employees, err := employee.NewService(employeeStore, eval)
	if err != nil {
		log.Fatalf("employee service: %v", err)
	}
	authSvc, err := auth.NewService(userStore, employees)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	attendanceSvc, err := attendance.NewService(attendanceStore, eval)
	if err != nil {
		log.Fatalf("attendance service: %v", err)
	}
	leaveSvc, err := leave.NewService(leaveStore, eval)
	if err != nil {
		log.Fatalf("leave service: %v", err)
	}
	payrollSvc, err := payroll.NewService(payrollStore, employees, eval)
	if err != nil {
		log.Fatalf("payroll service: %v", err)
	}
	performanceSvc, err := performance.NewService(goalStore, employees, eval)
	if err != nil {
		log.Fatalf("performance service: %v", err)
	}

	api := httpapi.New(httpapi.Config{
		ReadyProbe:  probe,
		Version:     version,
		Auth:        authSvc,
		Employees:   employees,
		Attendance:  attendanceSvc,
		Leaves:      leaveSvc,
		Payrolls:    payrollSvc,
		Performance: performanceSvc,
	})

	handler := api.Handler()
	handler = httpapi.Logging(handler)
	handler = httpapi.SecurityHeaders(handler)
	handler = httpapi.CORS(handler)
	handler = httpapi.MaxBodyBytes(handler, 1<<20)
	handler = httpapi.RateLimit(handler, 50, 25)

	addr := os.Getenv("PEOPLEOPS_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting peopleops-api %s on %s", version, srv.Addr)
	obs.SetReady(true)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
