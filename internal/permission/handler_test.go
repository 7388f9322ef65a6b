package permission_test

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
	"github.com/frahmantamala/rbac-service/internal/permission"
	permissionPostgres "github.com/frahmantamala/rbac-service/internal/permission/postgres"
	"github.com/frahmantamala/rbac-service/internal/transport"
)

var _ = Describe("Permission Handler Integration", func() {
	var router chi.Router

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&permissionDatamodel.Permission{})).To(Succeed())

		service := permission.NewService(permissionPostgres.NewPermissionRepository(db), slogger)
		_, err = service.EnsureSeeded(context.Background(), permission.DefaultNames)
		Expect(err).NotTo(HaveOccurred())

		handler := permission.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
		router = chi.NewRouter()
		router.Get("/permissions", handler.ListPermissions)
		router.Get("/permissions/{id}", handler.GetPermission)
		router.Post("/permissions", handler.CreatePermission)
	})

	It("lists the seeded permissions", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/permissions", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		var response permission.PermissionsResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())

		names := make([]string, 0, len(response.Data))
		for _, p := range response.Data {
			names = append(names, p.Name)
		}
		Expect(names).To(Equal(permission.DefaultNames))
	})

	It("returns 404 for an unknown permission", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/permissions/77", nil))

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring("PERMISSION_NOT_EXIST"))
	})

	It("returns 400 for a non-numeric id", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/permissions/abc", nil))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("creates a permission and rejects the duplicate", func() {
		body := `{"name":"Export","description":"download reports"}`

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/permissions", strings.NewReader(body)))
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created transport.MessageResponse
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.Data).To(Equal("Export"))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/permissions", strings.NewReader(body)))
		Expect(w.Code).To(Equal(http.StatusConflict))
	})
})
