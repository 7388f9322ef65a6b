package profile_test

import (
	"bytes"
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

	"github.com/frahmantamala/rbac-service/internal"
	permissionDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/user"
	"github.com/frahmantamala/rbac-service/internal/permission"
	permissionPostgres "github.com/frahmantamala/rbac-service/internal/permission/postgres"
	"github.com/frahmantamala/rbac-service/internal/profile"
	profilePostgres "github.com/frahmantamala/rbac-service/internal/profile/postgres"
	"github.com/frahmantamala/rbac-service/internal/role"
	rolePostgres "github.com/frahmantamala/rbac-service/internal/role/postgres"
	"github.com/frahmantamala/rbac-service/internal/transport"
)

var _ = Describe("Profile Handler Integration", func() {
	var (
		router chi.Router
		images *memoryImageStore
		userID int64
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ctx := context.Background()

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(
			&roleDatamodel.Role{},
			&permissionDatamodel.Permission{},
			&roleDatamodel.RolePermission{},
			&userDatamodel.User{},
			&userDatamodel.Person{},
		)).To(Succeed())

		permissionService := permission.NewService(permissionPostgres.NewPermissionRepository(db), slogger)
		seeded, err := permissionService.EnsureSeeded(ctx, permission.DefaultNames)
		Expect(err).NotTo(HaveOccurred())

		roleService := role.NewService(rolePostgres.NewRoleRepository(db), permissionService, nil, slogger)
		r, err := roleService.Create(ctx, role.CreateRoleDTO{Name: role.UserName})
		Expect(err).NotTo(HaveOccurred())
		_, err = roleService.AssignPermissions(ctx, r.ID, []int64{seeded[1].ID})
		Expect(err).NotTo(HaveOccurred())

		u := &userDatamodel.User{Name: "Jane", Email: "jane@example.com", PasswordHash: "x", Active: true, RoleID: r.ID}
		Expect(db.Create(u).Error).To(Succeed())
		userID = u.ID

		images = newMemoryImageStore()
		service := profile.NewService(profilePostgres.NewProfileRepository(db), roleService, images, 1<<10, slogger)
		handler := profile.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		router = chi.NewRouter()
		router.Route("/profile", func(pr chi.Router) {
			pr.Get("/me", handler.Me)
			pr.Put("/", handler.UpdateProfile)
			pr.Put("/photo", handler.UploadPhoto)
			pr.Get("/photo", handler.GetPhoto)
		})
	})

	do := func(method, path, contentType string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader(body))
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req = req.WithContext(internal.ContextWithUserID(req.Context(), userID))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("returns the profile with role permissions", func() {
		w := do(http.MethodGet, "/profile/me", "", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		var got profile.ProfileResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &got)).To(Succeed())
		Expect(got.Data.Role.Name).To(Equal(role.UserName))
		Expect(got.Data.Role.PermissionNames()).To(Equal([]string{permission.Read}))
	})

	It("upserts the person on repeated updates", func() {
		body := `{"name":"Jane","email":"jane@example.com","firstName":"Jane","lastName":"Doe","dateBirth":"1990-05-01"}`
		Expect(do(http.MethodPut, "/profile", "application/json", []byte(body)).Code).To(Equal(http.StatusOK))

		body = strings.Replace(body, `"Doe"`, `"Smith"`, 1)
		w := do(http.MethodPut, "/profile", "application/json", []byte(body))

		Expect(w.Code).To(Equal(http.StatusOK))
		var got struct {
			Data *profile.Profile `json:"data"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &got)).To(Succeed())
		Expect(got.Data.Person.LastName).To(Equal("Smith"))
		Expect(*got.Data.Person.DateBirth).To(Equal("1990-05-01"))
	})

	It("stores a padded mixed-case email in its normal form", func() {
		body := `{"name":"Jane","email":"  Jane.Doe@Example.COM ","firstName":"Jane","lastName":"Doe"}`

		w := do(http.MethodPut, "/profile", "application/json", []byte(body))

		Expect(w.Code).To(Equal(http.StatusOK))
		var got struct {
			Data *profile.Profile `json:"data"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &got)).To(Succeed())
		Expect(got.Data.Email).To(Equal("jane.doe@example.com"))
	})

	It("uploads and then serves the photo url", func() {
		// Given
		Expect(do(http.MethodGet, "/profile/photo", "", nil).Code).To(Equal(http.StatusNotFound))

		// When
		w := do(http.MethodPut, "/profile/photo", "image/png", []byte("png-bytes"))

		// Then
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(images.objects).To(HaveLen(1))

		w = do(http.MethodGet, "/profile/photo", "", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var got profile.PhotoResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &got)).To(Succeed())
		Expect(got.Data.URL).To(HavePrefix("https://cdn.test/images/"))
		Expect(got.Data.URL).To(HaveSuffix(".png"))
	})

	It("rejects an unsupported content type with 400", func() {
		w := do(http.MethodPut, "/profile/photo", "text/plain", []byte("hello"))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("UNSUPPORTED_IMAGE_TYPE"))
	})

	It("rejects an oversized image with 400", func() {
		w := do(http.MethodPut, "/profile/photo", "image/jpeg", bytes.Repeat([]byte("x"), 2<<10))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("IMAGE_TOO_LARGE"))
	})

	It("returns 401 without an authenticated user", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile/me", nil))

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
