package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/rbac-service/internal"
	"github.com/frahmantamala/rbac-service/internal/transport"
)

var _ = ginkgo.Describe("Auth Handler", func() {
	var (
		handler  *Handler
		tokenGen *JWTTokenGenerator
	)

	ginkgo.BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		tokenGen = NewJWTTokenGenerator("handler-secret", time.Hour)
		service := NewService(newMockRepository(), tokenGen, slogger)
		handler = NewHandler(&transport.BaseHandler{Logger: slogger}, service)
	})

	login := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
		return w
	}

	ginkgo.Describe("Login", func() {
		ginkgo.It("should return a token", func() {
			w := login(`{"email":"user@example.com","password":"correct_password"}`)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			var response LoginResponse
			gomega.Expect(json.NewDecoder(w.Body).Decode(&response)).To(gomega.Succeed())
			gomega.Expect(response.Token).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("should answer unknown email and wrong password with the same body", func() {
			unknown := login(`{"email":"ghost@example.com","password":"correct_password"}`)
			wrong := login(`{"email":"user@example.com","password":"not_the_password"}`)

			gomega.Expect(unknown.Code).To(gomega.Equal(http.StatusConflict))
			gomega.Expect(wrong.Code).To(gomega.Equal(http.StatusConflict))
			gomega.Expect(unknown.Body.String()).To(gomega.Equal(wrong.Body.String()))
		})

		ginkgo.It("should reject malformed json", func() {
			gomega.Expect(login(`{"email":`).Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var reached bool

		serve := func(header string) *httptest.ResponseRecorder {
			reached = false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				userID, ok := internal.UserIDFromContext(r.Context())
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(userID).To(gomega.Equal(int64(1)))
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(w, req)
			return w
		}

		ginkgo.It("should pass the user id on for a valid token", func() {
			token, _ := tokenGen.Issue(1)

			w := serve("Bearer " + token)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(reached).To(gomega.BeTrue())
		})

		ginkgo.It("should return 401 without a token", func() {
			w := serve("")

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(reached).To(gomega.BeFalse())
		})

		ginkgo.It("should return 401 for a garbage token", func() {
			w := serve("Bearer nope")

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(reached).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("Me", func() {
		ginkgo.It("should return the current user", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			req = req.WithContext(internal.ContextWithUserID(req.Context(), 2))
			w := httptest.NewRecorder()

			handler.Me(w, req)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			var response MeResponse
			gomega.Expect(json.NewDecoder(w.Body).Decode(&response)).To(gomega.Succeed())
			gomega.Expect(response.User.Name).To(gomega.Equal("admin"))
		})

		ginkgo.It("should return 401 without a principal", func() {
			w := httptest.NewRecorder()

			handler.Me(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})
})
