package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/rbac-service/api"
	"github.com/frahmantamala/rbac-service/internal/auth"
	authPostgres "github.com/frahmantamala/rbac-service/internal/auth/postgres"
	"github.com/frahmantamala/rbac-service/internal/authorization"
	authorizationPostgres "github.com/frahmantamala/rbac-service/internal/authorization/postgres"
	permissionDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/user"
	"github.com/frahmantamala/rbac-service/internal/core/events"
	"github.com/frahmantamala/rbac-service/internal/permission"
	permissionPostgres "github.com/frahmantamala/rbac-service/internal/permission/postgres"
	"github.com/frahmantamala/rbac-service/internal/profile"
	profilePostgres "github.com/frahmantamala/rbac-service/internal/profile/postgres"
	"github.com/frahmantamala/rbac-service/internal/role"
	rolePostgres "github.com/frahmantamala/rbac-service/internal/role/postgres"
	"github.com/frahmantamala/rbac-service/internal/transport"
	"github.com/frahmantamala/rbac-service/internal/transport/middleware"
	"github.com/frahmantamala/rbac-service/internal/user"
	userPostgres "github.com/frahmantamala/rbac-service/internal/user/postgres"
)

type discardImages struct{}

func (discardImages) Store(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "https://cdn.test/" + key, nil
}

var _ = Describe("Router", func() {
	var (
		router        *chi.Mux
		permissionIDs map[string]int64
		guestRoleID   int64
	)

	BeforeEach(func() {
		ctx := context.Background()
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		// every connection to :memory: opens its own database
		sqlDB.SetMaxOpenConns(1)
		DeferCleanup(sqlDB.Close)

		Expect(db.AutoMigrate(
			&roleDatamodel.Role{},
			&permissionDatamodel.Permission{},
			&roleDatamodel.RolePermission{},
			&userDatamodel.User{},
			&userDatamodel.Person{},
		)).To(Succeed())

		bus := events.NewEventBus(slogger)

		permissionService := permission.NewService(permissionPostgres.NewPermissionRepository(db), slogger)
		seeded, err := permissionService.EnsureSeeded(ctx, permission.DefaultNames)
		Expect(err).NotTo(HaveOccurred())
		permissionIDs = make(map[string]int64, len(seeded))
		for _, p := range seeded {
			permissionIDs[p.Name] = p.ID
		}

		roleService := role.NewService(rolePostgres.NewRoleRepository(db), permissionService, bus, slogger)
		// ADMIN passes every check without links
		admin, err := roleService.Create(ctx, role.CreateRoleDTO{Name: "ADMIN"})
		Expect(err).NotTo(HaveOccurred())
		guest, err := roleService.Create(ctx, role.CreateRoleDTO{Name: "Guest"})
		Expect(err).NotTo(HaveOccurred())
		_, err = roleService.ReplacePermissions(ctx, guest.ID, []int64{permissionIDs[permission.Read], permissionIDs[permission.List]})
		Expect(err).NotTo(HaveOccurred())
		guestRoleID = guest.ID

		hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		Expect(db.Create(&userDatamodel.User{Name: "Admin", Email: "admin@admin.com", PasswordHash: string(hash), Active: true, RoleID: admin.ID}).Error).To(Succeed())
		Expect(db.Create(&userDatamodel.User{Name: "Visitor", Email: "guest@example.com", PasswordHash: string(hash), Active: true, RoleID: guest.ID}).Error).To(Succeed())

		resolver := authorization.NewResolver(
			authorizationPostgres.NewSnapshotStore(sqlx.NewDb(sqlDB, "sqlite3")),
			authorization.NewLocalCache(64, time.Minute),
			nil,
			slogger,
		)
		resolver.Subscribe(bus)

		base := &transport.BaseHandler{Logger: slogger}
		authService := auth.NewService(authPostgres.NewRepository(db), auth.NewJWTTokenGenerator("test-secret", time.Hour), slogger)
		userService := user.NewService(userPostgres.NewUserRepository(db), bus, bcrypt.MinCost, slogger)
		profileService := profile.NewService(profilePostgres.NewProfileRepository(db), roleService, discardImages{}, 1<<10, slogger)

		router = chi.NewRouter()
		RegisterAllRoutes(router, Handlers{
			Auth:       auth.NewHandler(base, authService),
			Role:       role.NewHandler(base, roleService),
			Permission: permission.NewHandler(base, permissionService),
			User:       user.NewHandler(base, userService),
			Profile:    profile.NewHandler(base, profileService),
			Health:     NewHealthHandler(sqlDB, nil),
		}, middleware.NewRBACAuthorization(resolver, slogger), Options{Logger: slogger})
	})

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	login := func(email string) string {
		w := do(http.MethodPost, APIPrefix+"/auth/login", "", fmt.Sprintf(`{"email":%q,"password":"secret"}`, email))
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp auth.LoginResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Token).NotTo(BeEmpty())
		return resp.Token
	}

	It("documents every mounted api route", func() {
		// Given
		doc, err := api.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())

		// When
		var routes []string
		err = chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			if !strings.HasPrefix(route, APIPrefix) {
				return nil
			}
			path := strings.TrimSuffix(strings.TrimPrefix(route, APIPrefix), "/")
			routes = append(routes, method+" "+path)

			item := doc.Paths.Find(path)
			if item == nil {
				return fmt.Errorf("%s is not documented", path)
			}
			if item.GetOperation(method) == nil {
				return fmt.Errorf("%s %s is not documented", method, path)
			}
			return nil
		})

		// Then
		Expect(err).NotTo(HaveOccurred())
		Expect(routes).To(ContainElements("POST /auth/login", "GET /users/{id}", "PUT /profile/photo"))
	})

	It("rejects protected routes without a token", func() {
		w := do(http.MethodGet, APIPrefix+"/users", "", "")

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Body.String()).To(ContainSubstring(`"error"`))
	})

	It("lets each role do what its permissions allow", func() {
		// Given
		guestToken := login("guest@example.com")
		adminToken := login("admin@admin.com")

		// When / Then
		Expect(do(http.MethodGet, APIPrefix+"/users", guestToken, "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodPost, APIPrefix+"/roles", guestToken, `{"name":"Editor"}`).Code).To(Equal(http.StatusForbidden))
		Expect(do(http.MethodPost, APIPrefix+"/roles", adminToken, `{"name":"Editor"}`).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodGet, APIPrefix+"/auth/me", guestToken, "").Code).To(Equal(http.StatusOK))
	})

	It("picks up permission changes on the next request", func() {
		// Given
		guestToken := login("guest@example.com")
		adminToken := login("admin@admin.com")
		Expect(do(http.MethodPost, APIPrefix+"/permissions", guestToken, `{"name":"Export"}`).Code).To(Equal(http.StatusForbidden))

		// When
		w := do(http.MethodPost, fmt.Sprintf("%s/roles/%d/permissions", APIPrefix, guestRoleID), adminToken,
			fmt.Sprintf(`{"permissionIds":[%d]}`, permissionIDs[permission.Create]))
		Expect(w.Code).To(Equal(http.StatusOK))

		// Then
		Expect(do(http.MethodPost, APIPrefix+"/permissions", guestToken, `{"name":"Export"}`).Code).To(Equal(http.StatusCreated))
	})

	It("serves the openapi document and health endpoints", func() {
		w := do(http.MethodGet, OpenAPIPath, "", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("openapi: 3.0.3"))

		Expect(do(http.MethodGet, APIPrefix+"/ping", "", "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, APIPrefix+"/health", "", "").Code).To(Equal(http.StatusOK))
	})
})
