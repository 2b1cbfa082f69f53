// container.go
package main

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/hireline/pkg/ai/llm"
	aiopenai "github.com/Abraxas-365/hireline/pkg/ai/providers/openai"
	"github.com/Abraxas-365/hireline/pkg/attendance"
	"github.com/Abraxas-365/hireline/pkg/attendance/attendanceapi"
	"github.com/Abraxas-365/hireline/pkg/attendance/attendancesrv"
	"github.com/Abraxas-365/hireline/pkg/candidate"
	"github.com/Abraxas-365/hireline/pkg/candidate/candidateapi"
	"github.com/Abraxas-365/hireline/pkg/candidate/candidatesrv"
	"github.com/Abraxas-365/hireline/pkg/complaint"
	"github.com/Abraxas-365/hireline/pkg/complaint/complaintapi"
	"github.com/Abraxas-365/hireline/pkg/complaint/complaintsrv"
	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/docgen"
	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/docstore/docstoreapi"
	"github.com/Abraxas-365/hireline/pkg/docstore/docstorepg"
	"github.com/Abraxas-365/hireline/pkg/docstore/docstoreredis"
	"github.com/Abraxas-365/hireline/pkg/employee"
	"github.com/Abraxas-365/hireline/pkg/employee/employeeapi"
	"github.com/Abraxas-365/hireline/pkg/employee/employeesrv"
	"github.com/Abraxas-365/hireline/pkg/fsx"
	"github.com/Abraxas-365/hireline/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/hireline/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/hireline/pkg/iam/invitation"
	"github.com/Abraxas-365/hireline/pkg/iam/invitation/invitationapi"
	"github.com/Abraxas-365/hireline/pkg/iam/invitation/invitationinfra"
	"github.com/Abraxas-365/hireline/pkg/iam/invitation/invitationsrv"
	"github.com/Abraxas-365/hireline/pkg/iam/scopes"
	"github.com/Abraxas-365/hireline/pkg/iam/user"
	"github.com/Abraxas-365/hireline/pkg/iam/user/userapi"
	"github.com/Abraxas-365/hireline/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/hireline/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/hireline/pkg/job"
	"github.com/Abraxas-365/hireline/pkg/job/jobapi"
	"github.com/Abraxas-365/hireline/pkg/job/jobsrv"
	"github.com/Abraxas-365/hireline/pkg/letter"
	"github.com/Abraxas-365/hireline/pkg/letter/letterapi"
	"github.com/Abraxas-365/hireline/pkg/letter/lettersrv"
	"github.com/Abraxas-365/hireline/pkg/lineup"
	"github.com/Abraxas-365/hireline/pkg/lineup/lineupapi"
	"github.com/Abraxas-365/hireline/pkg/lineup/lineupsrv"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/Abraxas-365/hireline/pkg/panel"
	"github.com/Abraxas-365/hireline/pkg/panel/panelapi"
	"github.com/Abraxas-365/hireline/pkg/panel/panelsrv"
	"github.com/Abraxas-365/hireline/pkg/partner"
	"github.com/Abraxas-365/hireline/pkg/partner/partnerapi"
	"github.com/Abraxas-365/hireline/pkg/partner/partnersrv"
	"github.com/Abraxas-365/hireline/pkg/payroll"
	"github.com/Abraxas-365/hireline/pkg/payroll/payrollapi"
	"github.com/Abraxas-365/hireline/pkg/payroll/payrollsrv"
	"github.com/Abraxas-365/hireline/pkg/stats/statsapi"
	"github.com/Abraxas-365/hireline/pkg/stats/statssrv"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config

	// Infrastructure
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileSystem
	S3Client   *s3.Client
	Store      docstore.Store
	Feed       docstore.Feed
	Chrome     *docgen.ChromeRenderer

	// Core IAM
	TokenService      auth.TokenService
	AuthService       *auth.AuthService
	UserService       *usersrv.UserService
	InvitationService *invitationsrv.InvitationService

	// Domain services
	PanelService      *panelsrv.PanelService
	JobService        *jobsrv.JobService
	LineupService     *lineupsrv.LineupService
	CandidateService  *candidatesrv.CandidateService
	EmployeeService   *employeesrv.EmployeeService
	AttendanceService *attendancesrv.AttendanceService
	PayrollService    *payrollsrv.PayrollService
	LetterService     *lettersrv.LetterService
	PartnerService    *partnersrv.PartnerService
	ComplaintService  *complaintsrv.ComplaintService
	DashboardService  *statssrv.DashboardService

	// API Handlers
	AuthHandlers       *auth.AuthHandlers
	UserHandlers       *userapi.UserHandlers
	InvitationHandlers *invitationapi.InvitationHandlers
	PanelHandlers      *panelapi.PanelHandlers
	JobHandlers        *jobapi.JobHandlers
	LineupHandlers     *lineupapi.LineupHandlers
	CandidateHandlers  *candidateapi.CandidateHandlers
	EmployeeHandlers   *employeeapi.EmployeeHandlers
	AttendanceHandlers *attendanceapi.AttendanceHandlers
	PayrollHandlers    *payrollapi.PayrollHandlers
	LetterHandlers     *letterapi.LetterHandlers
	PartnerHandlers    *partnerapi.PartnerHandlers
	ComplaintHandlers  *complaintapi.ComplaintHandlers
	DashboardHandlers  *statsapi.DashboardHandlers
	StreamHandlers     *docstoreapi.StreamHandlers

	// Middleware
	AuthMiddleware *auth.AuthMiddleware

	// Background Services
	CleanupService   *authinfra.CleanupService
	EscalationWorker *complaintsrv.EscalationWorker

	userRepo user.UserRepository
}

// NewContainer initializes the dependency injection container
func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing dependency container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initIAM()
	c.initDomain()
	c.initHandlers()

	logx.Info("✅ Container initialized successfully")
	return c
}

// UsesDatabase reports whether the container talks to Postgres
func (c *Container) UsesDatabase() bool {
	return c.Config.Storage.DocStore == "postgres"
}

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	if c.UsesDatabase() {
		c.DB = connectDatabase(c.Config.Database)
		c.Store = docstorepg.NewPostgresStore(c.DB)
		logx.Info("✅ Database connected, documents stored in Postgres")
	} else {
		c.Store = docstore.NewMemoryStore()
		logx.Warn("⚠️  Using in-memory document store (data is lost on restart)")
	}

	// 2. Redis
	if c.Config.Redis.Enabled {
		c.Redis = redis.NewClient(redisOptions(c.Config.Redis))
		if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
			logx.Fatalf("Failed to connect to Redis: %v", err)
		}
		logx.Info("✅ Redis connected")
	}

	// 3. Change feed
	if c.Config.Storage.ChangeFeed == "redis" && c.Redis != nil {
		c.Feed = docstoreredis.NewRedisFeed(c.Redis, c.Config.Storage.SubscriberBuffer)
		logx.Info("✅ Change feed on Redis pub/sub")
	} else {
		c.Feed = docstore.NewLocalFeed(c.Config.Storage.SubscriberBuffer)
		logx.Info("✅ In-process change feed")
	}

	// 4. File storage (local or S3)
	c.initFileStorage()

	logx.Info("✅ Infrastructure initialized")
}

func connectDatabase(cfg config.DatabaseConfig) *sqlx.DB {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db
}

// redisOptions prefers REDIS_URL, falling back to host/port
func redisOptions(cfg config.RedisConfig) *redis.Options {
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			logx.Fatalf("Invalid REDIS_URL: %v", err)
		}
		return opts
	}
	return &redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func (c *Container) initFileStorage() {
	st := c.Config.Storage
	switch st.Mode {
	case "s3":
		awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(), awsConfig.WithRegion(st.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		c.S3Client = s3.NewFromConfig(awsCfg)
		c.FileSystem = fsxs3.NewS3FileSystem(c.S3Client, st.AWSBucket, st.S3Prefix)
		logx.Infof("✅ S3 file system configured (bucket: %s, region: %s)", st.AWSBucket, st.AWSRegion)

	default:
		localFS, err := fsxlocal.NewLocalFileSystem(st.UploadDir)
		if err != nil {
			logx.Fatalf("Failed to initialize local file system: %v", err)
		}
		c.FileSystem = localFS
		logx.Infof("✅ Local file system configured (path: %s)", localFS.GetBasePath())
	}
}

func (c *Container) initIAM() {
	logx.Info("🔐 Initializing IAM...")

	var (
		tokenRepo      auth.TokenRepository
		invitationRepo invitation.InvitationRepository
		limiter        auth.LoginLimiter
	)
	if c.UsesDatabase() {
		c.userRepo = userinfra.NewPostgresUserRepository(c.DB)
		tokenRepo = authinfra.NewPostgresTokenRepository(c.DB)
		invitationRepo = invitationinfra.NewPostgresInvitationRepository(c.DB)
	} else {
		c.userRepo = userinfra.NewMemoryUserRepository()
		tokenRepo = authinfra.NewMemoryTokenRepository()
		invitationRepo = invitationinfra.NewMemoryInvitationRepository()
	}

	login := c.Config.Auth.Login
	if c.Redis != nil {
		limiter = authinfra.NewRedisLoginLimiter(c.Redis, login.MaxFailedAttempts, login.LockoutWindow)
	} else {
		limiter = authinfra.NewMemoryLoginLimiter(login.MaxFailedAttempts, login.LockoutWindow)
		logx.Warn("⚠️  Using in-memory login limiter (not shared across replicas)")
	}

	passwordSvc := authinfra.NewBcryptPasswordService(c.Config.Auth.Password.BcryptCost)
	c.TokenService = auth.NewJWTServiceFromConfig(&c.Config.Auth.JWT)

	c.UserService = usersrv.NewUserService(c.userRepo, passwordSvc, c.Config.Auth.Password.MinLength)
	c.InvitationService = invitationsrv.NewInvitationService(
		invitationRepo,
		c.userRepo,
		c.UserService,
		&c.Config.Auth.Invitation,
	)
	c.AuthService = auth.NewAuthService(
		c.userRepo,
		passwordSvc,
		c.TokenService,
		tokenRepo,
		limiter,
		c.Config.Auth.JWT.RefreshTokenTTL,
		c.Config.Auth.Password.MinLength,
	)

	c.AuthMiddleware = auth.NewAuthMiddleware(c.TokenService)
	c.CleanupService = authinfra.NewCleanupService(tokenRepo, c.InvitationService, c.Config.Auth.Cleanup.Interval)
}

func (c *Container) initDomain() {
	logx.Info("🗄️  Initializing repositories and services...")

	store, feed := c.Store, c.Feed

	// --- Collections ---
	roles := docstore.NewCollection[panel.JobRole](store, feed, panel.RolesCollection)
	locations := docstore.NewCollection[panel.Location](store, feed, panel.LocationsCollection)
	stores := docstore.NewCollection[panel.Store](store, feed, panel.StoresCollection)
	jobs := docstore.NewCollection[job.Job](store, feed, job.Collection)
	lineups := docstore.NewCollection[lineup.Lineup](store, feed, lineup.Collection)
	candidates := docstore.NewCollection[candidate.Candidate](store, feed, candidate.Collection)
	employees := docstore.NewCollection[employee.Employee](store, feed, employee.Collection)
	records := docstore.NewCollection[attendance.Record](store, feed, attendance.Collection)
	payslips := docstore.NewCollection[payroll.Payslip](store, feed, payroll.Collection)
	offers := docstore.NewCollection[letter.OfferLetter](store, feed, letter.OfferCollection)
	warnings := docstore.NewCollection[letter.WarningLetter](store, feed, letter.WarningCollection)
	partners := docstore.NewCollection[partner.Partner](store, feed, partner.PartnersCollection)
	requirements := docstore.NewCollection[partner.Requirement](store, feed, partner.RequirementsCollection)
	invoices := docstore.NewCollection[partner.Invoice](store, feed, partner.InvoicesCollection)
	invoiceCounters := docstore.NewCollection[partner.InvoiceCounter](store, feed, partner.CountersCollection)
	complaints := docstore.NewCollection[complaint.Complaint](store, feed, complaint.Collection)

	// --- Document generation ---
	var renderer docgen.Renderer = docgen.HTMLRenderer{}
	if c.Config.DocGen.ChromeEnabled {
		c.Chrome = docgen.NewChromeRenderer(c.Config.DocGen.ChromePath)
		renderer = c.Chrome
		logx.Info("✅ PDF rendering through headless Chrome")
	} else {
		logx.Warn("⚠️  Chrome disabled, documents are stored as HTML")
	}
	docs, err := docgen.NewGenerator(renderer, c.Config.DocGen)
	if err != nil {
		logx.Fatalf("Failed to load document templates: %v", err)
	}

	// --- AI ---
	var model llm.LLM
	if c.Config.AI.Enabled() {
		model = aiopenai.NewOpenAIProvider(c.Config.AI.OpenAIKey, c.Config.AI.Model)
		logx.Infof("✅ OpenAI job drafting enabled (model: %s)", c.Config.AI.Model)
	}

	// --- Services ---
	c.PanelService = panelsrv.NewPanelService(roles, locations, stores)
	c.JobService = jobsrv.NewJobService(jobs, c.PanelService, model)

	// employees and candidates reference each other; the quitter is set after both exist
	c.EmployeeService = employeesrv.NewEmployeeService(employees, c.PanelService, nil, c.FileSystem)
	c.CandidateService = candidatesrv.NewCandidateService(candidates, c.PanelService, c.JobService, c.EmployeeService)
	c.EmployeeService.SetCandidateQuitter(c.CandidateService)
	c.CandidateService.SetCVService(candidatesrv.NewCVService(docs, c.FileSystem, c.UserService))

	c.LineupService = lineupsrv.NewLineupService(
		lineups,
		c.PanelService,
		c.UserService,
		c.CandidateService,
		c.Config.Recruitment,
	)

	c.AttendanceService = attendancesrv.NewAttendanceService(records, employees)
	c.PayrollService = payrollsrv.NewPayrollService(payslips, employees, c.AttendanceService, c.Config.Payroll)

	c.LetterService = lettersrv.NewLetterService(
		offers,
		warnings,
		c.CandidateService,
		employees,
		c.PanelService,
		docs,
		c.FileSystem,
		c.Config.Payroll,
	)

	c.PartnerService = partnersrv.NewPartnerService(partners, requirements, invoices, invoiceCounters, employees, c.PanelService, c.Config.Payroll)
	c.CandidateService.AddHireListener(c.PartnerService)
	c.CandidateService.AddHireListener(c.LetterService)

	c.ComplaintService = complaintsrv.NewComplaintService(complaints, employees, c.Config.SLA)
	c.EscalationWorker = complaintsrv.NewEscalationWorker(c.ComplaintService, c.Config.SLA.CheckInterval)

	c.DashboardService = statssrv.NewDashboardService(statssrv.Sources{
		Candidates:   candidates,
		Lineups:      lineups,
		Employees:    employees,
		Attendance:   records,
		Partners:     partners,
		Requirements: requirements,
		Invoices:     invoices,
		Complaints:   complaints,
		Offers:       offers,
	}, c.UserService)

	logx.Info("✅ All services initialized")
}

func (c *Container) initHandlers() {
	c.AuthHandlers = auth.NewAuthHandlers(c.AuthService, &c.Config.Auth)
	c.UserHandlers = userapi.NewUserHandlers(c.UserService)
	c.InvitationHandlers = invitationapi.NewInvitationHandlers(c.InvitationService)
	c.PanelHandlers = panelapi.NewPanelHandlers(c.PanelService)
	c.JobHandlers = jobapi.NewJobHandlers(c.JobService)
	c.LineupHandlers = lineupapi.NewLineupHandlers(c.LineupService)
	c.CandidateHandlers = candidateapi.NewCandidateHandlers(c.CandidateService)
	c.EmployeeHandlers = employeeapi.NewEmployeeHandlers(c.EmployeeService)
	c.AttendanceHandlers = attendanceapi.NewAttendanceHandlers(c.AttendanceService)
	c.PayrollHandlers = payrollapi.NewPayrollHandlers(c.PayrollService)
	c.LetterHandlers = letterapi.NewLetterHandlers(c.LetterService)
	c.PartnerHandlers = partnerapi.NewPartnerHandlers(c.PartnerService)
	c.ComplaintHandlers = complaintapi.NewComplaintHandlers(c.ComplaintService)
	c.DashboardHandlers = statsapi.NewDashboardHandlers(c.DashboardService)
	c.StreamHandlers = docstoreapi.NewStreamHandlers(c.Feed, streamAccess()).
		WithKeepAlive(c.Config.Server.StreamKeepAlive)
}

// streamAccess maps every live collection to the scopes that can read all of it.
// Own-scoped readers use the REST endpoints instead.
func streamAccess() map[string][]string {
	return map[string][]string{
		panel.RolesCollection:          {scopes.ScopePanelRead},
		panel.LocationsCollection:      {scopes.ScopePanelRead},
		panel.StoresCollection:         {scopes.ScopePanelRead},
		job.Collection:                 {scopes.ScopeJobsRead},
		lineup.Collection:              {scopes.ScopeLineupsRead},
		candidate.Collection:           {scopes.ScopeCandidatesRead},
		employee.Collection:            {scopes.ScopeEmployeesRead},
		attendance.Collection:          {scopes.ScopeAttendanceExport},
		payroll.Collection:             {scopes.ScopePayrollRead},
		letter.OfferCollection:         {scopes.ScopeLettersRead},
		letter.WarningCollection:       {scopes.ScopeLettersRead},
		partner.PartnersCollection:     {scopes.ScopePartnersRead},
		partner.RequirementsCollection: {scopes.ScopePartnersRead},
		partner.InvoicesCollection:     {scopes.ScopeInvoicesWrite},
		complaint.Collection:           {scopes.ScopeComplaintsWrite},
	}
}

// StartBackgroundServices starts background workers
func (c *Container) StartBackgroundServices(ctx context.Context) {
	logx.Info("🔄 Starting background services...")

	go c.CleanupService.Start(ctx)
	logx.Info("✅ Cleanup service started")

	go c.EscalationWorker.Start(ctx)
	logx.Infof("✅ Complaint escalation worker started (every %s)", c.Config.SLA.CheckInterval)
}

// Cleanup closes all connections and stops workers
func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.Chrome != nil {
		c.Chrome.Close()
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup completed")
}

// Health pings every backing service the container uses
func (c *Container) Health(ctx context.Context) map[string]string {
	out := map[string]string{}
	if c.DB != nil {
		out["db"] = healthOf(c.DB.PingContext(ctx))
	}
	if c.Redis != nil {
		out["redis"] = healthOf(c.Redis.Ping(ctx).Err())
	}
	return out
}

func healthOf(err error) string {
	if err != nil {
		return fmt.Sprintf("unhealthy: %v", err)
	}
	return "healthy"
}
