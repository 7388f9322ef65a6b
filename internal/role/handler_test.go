package role_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	permissionDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/user"
	"github.com/frahmantamala/rbac-service/internal/core/events"
	"github.com/frahmantamala/rbac-service/internal/permission"
	permissionPostgres "github.com/frahmantamala/rbac-service/internal/permission/postgres"
	"github.com/frahmantamala/rbac-service/internal/role"
	rolePostgres "github.com/frahmantamala/rbac-service/internal/role/postgres"
	"github.com/frahmantamala/rbac-service/internal/transport"
)

type roleEnvelope struct {
	Message string     `json:"message"`
	Data    *role.Role `json:"data"`
}

var _ = Describe("Role Handler Integration", func() {
	var router chi.Router

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(
			&roleDatamodel.Role{},
			&permissionDatamodel.Permission{},
			&roleDatamodel.RolePermission{},
			&userDatamodel.User{},
		)).To(Succeed())

		permissionService := permission.NewService(permissionPostgres.NewPermissionRepository(db), slogger)
		_, err = permissionService.EnsureSeeded(context.Background(), permission.DefaultNames)
		Expect(err).NotTo(HaveOccurred())

		service := role.NewService(rolePostgres.NewRoleRepository(db), permissionService, events.NewEventBus(slogger), slogger)
		handler := role.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		router = chi.NewRouter()
		router.Route("/roles", func(r chi.Router) {
			r.Get("/", handler.ListRoles)
			r.Post("/", handler.CreateRole)
			r.Get("/{id}", handler.GetRole)
			r.Put("/{id}", handler.UpdateRole)
			r.Delete("/{id}", handler.DeleteRole)
			r.Post("/{id}/permissions", handler.AssignPermissions)
			r.Put("/{id}/permissions", handler.ReplacePermissions)
		})
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
		return w
	}

	It("walks a role through its lifecycle", func() {
		// create
		w := do(http.MethodPost, "/roles", `{"name":"Editor"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(w.Body.String()).To(ContainSubstring(`"data":"Editor"`))

		// duplicate
		Expect(do(http.MethodPost, "/roles", `{"name":"Editor"}`).Code).To(Equal(http.StatusConflict))

		// assign
		w = do(http.MethodPost, "/roles/1/permissions", `{"permissionIds":[1,2]}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		var env roleEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		Expect(env.Data.PermissionNames()).To(Equal([]string{permission.Create, permission.Read}))

		// delete is refused while linked
		Expect(do(http.MethodDelete, "/roles/1", "").Code).To(Equal(http.StatusConflict))

		// replace with nothing, then delete
		w = do(http.MethodPut, "/roles/1/permissions", `{"permissionIds":[]}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodDelete, "/roles/1", "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, "/roles/1", "").Code).To(Equal(http.StatusNotFound))
	})

	It("returns 404 when assigning an unknown permission", func() {
		Expect(do(http.MethodPost, "/roles", `{"name":"Editor"}`).Code).To(Equal(http.StatusCreated))

		w := do(http.MethodPost, "/roles/1/permissions", `{"permissionIds":[99]}`)

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring("PERMISSION_NOT_EXIST"))
	})

	It("returns 400 on malformed json", func() {
		Expect(do(http.MethodPost, "/roles", `{"name":`).Code).To(Equal(http.StatusBadRequest))
	})

	It("lists roles with their permissions", func() {
		Expect(do(http.MethodPost, "/roles", `{"name":"Guest"}`).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodPut, "/roles/1/permissions", `{"permissionIds":[2,5]}`).Code).To(Equal(http.StatusOK))

		w := do(http.MethodGet, "/roles", "")

		Expect(w.Code).To(Equal(http.StatusOK))
		var response role.RolesResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Data).To(HaveLen(1))
		Expect(response.Data[0].PermissionNames()).To(Equal([]string{permission.Read, permission.List}))
	})
})
