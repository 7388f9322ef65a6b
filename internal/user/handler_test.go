package user_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	roleDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/user"
	"github.com/frahmantamala/rbac-service/internal/core/events"
	"github.com/frahmantamala/rbac-service/internal/transport"
	"github.com/frahmantamala/rbac-service/internal/user"
	userPostgres "github.com/frahmantamala/rbac-service/internal/user/postgres"
)

type userEnvelope struct {
	Message string     `json:"message"`
	Data    *user.User `json:"data"`
}

var _ = Describe("User Handler Integration", func() {
	var router chi.Router

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&roleDatamodel.Role{}, &userDatamodel.User{})).To(Succeed())
		Expect(db.Create(&[]*roleDatamodel.Role{{Name: "ADMIN"}, {Name: "User"}}).Error).To(Succeed())

		service := user.NewService(userPostgres.NewUserRepository(db), events.NewEventBus(slogger), bcrypt.MinCost, slogger)
		handler := user.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		router = chi.NewRouter()
		router.Route("/users", func(r chi.Router) {
			r.Get("/", handler.ListUsers)
			r.Post("/", handler.CreateUser)
			r.Get("/{id}", handler.GetUser)
			r.Put("/{id}", handler.UpdateUser)
			r.Delete("/{id}", handler.DeleteUser)
		})
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
		return w
	}

	It("walks a user through its lifecycle", func() {
		// create
		w := do(http.MethodPost, "/users", `{"name":"Jane","email":"jane@example.com","password":"secret","roleId":2}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(w.Body.String()).To(ContainSubstring(`"data":"Jane"`))

		// read
		w = do(http.MethodGet, "/users/1", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var got struct {
			Data *user.User `json:"data"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &got)).To(Succeed())
		Expect(got.Data.Role.Name).To(Equal("User"))
		Expect(w.Body.String()).NotTo(ContainSubstring("password"))

		// update with role change
		w = do(http.MethodPut, "/users/1", `{"name":"Jane Doe","email":"jane@example.com","roleId":1}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		var updated userEnvelope
		Expect(json.Unmarshal(w.Body.Bytes(), &updated)).To(Succeed())
		Expect(updated.Data.Name).To(Equal("Jane Doe"))
		Expect(updated.Data.Role.Name).To(Equal("ADMIN"))

		// delete
		w = do(http.MethodDelete, "/users/1", "")
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodGet, "/users/1", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("returns 409 for a duplicate email", func() {
		body := `{"name":"Jane","email":"jane@example.com","password":"secret","roleId":2}`
		Expect(do(http.MethodPost, "/users", body).Code).To(Equal(http.StatusCreated))

		w := do(http.MethodPost, "/users", body)

		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring("INFO_USER_IN_USE"))
	})

	It("returns 404 when the role does not exist", func() {
		w := do(http.MethodPost, "/users", `{"name":"Jane","email":"jane@example.com","password":"secret","roleId":9}`)

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring("ROLE_NOT_EXIST"))
	})

	It("lists users with paging and a name filter", func() {
		// Given
		for _, name := range []string{"alice", "bob", "alicia"} {
			w := do(http.MethodPost, "/users", `{"name":"`+name+`","email":"`+name+`@example.com","password":"secret","roleId":2}`)
			Expect(w.Code).To(Equal(http.StatusCreated))
		}

		// When
		w := do(http.MethodGet, "/users?page=1&pageSize=1&name=ali", "")

		// Then
		Expect(w.Code).To(Equal(http.StatusOK))
		var page user.UsersResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &page)).To(Succeed())
		Expect(page.Count).To(Equal(int64(2)))
		Expect(page.Data).To(HaveLen(1))
		Expect(page.Data[0].Name).To(Equal("alice"))
	})

	It("rejects a malformed page parameter", func() {
		w := do(http.MethodGet, "/users?page=zero", "")

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("rejects a non numeric id", func() {
		w := do(http.MethodGet, "/users/abc", "")

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("INVALID_ID"))
	})
})
