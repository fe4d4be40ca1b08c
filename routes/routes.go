package routes

import (
	"net/http"

	"github.com/equipe-visionarios/imoveis-api/controllers"
	"github.com/equipe-visionarios/imoveis-api/middleware"
	"github.com/equipe-visionarios/imoveis-api/services"
	"github.com/gorilla/mux"
)

const idPattern = "{id:[0-9a-fA-F]{24}}"

type Dependencies struct {
	Properties *services.PropertyService
	Users      *services.UserService
	Tokens     middleware.TokenValidator
}

func Routes(router *mux.Router, deps Dependencies) {
	router.Use(middleware.Logger, middleware.Recoverer)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		controllers.WriteError(w, http.StatusNotFound, "not_found", "Rota não encontrada")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		controllers.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Método não permitido")
	})

	auth := middleware.Auth(deps.Tokens)
	optionalAuth := middleware.OptionalAuth(deps.Tokens)

	// User routes
	users := router.PathPrefix("/api/users").Subrouter()
	users.HandleFunc("/register", controllers.RegisterUser(deps.Users)).Methods("POST")
	users.HandleFunc("/login", controllers.LoginUser(deps.Users)).Methods("POST")
	users.HandleFunc("/forgot-password", controllers.ForgotPassword(deps.Users)).Methods("POST")
	users.HandleFunc("/reset-password/{token}", controllers.ResetPassword(deps.Users)).Methods("PUT")
	users.Handle("/profile", auth(controllers.GetProfile(deps.Users))).Methods("GET")
	users.Handle("/profile", auth(controllers.UpdateProfile(deps.Users))).Methods("PUT")
	users.Handle("", auth(middleware.AdminOnly(controllers.GetUsers(deps.Users)))).Methods("GET")

	// Property routes
	props := router.PathPrefix("/api/properties").Subrouter()
	props.Handle("", optionalAuth(controllers.GetProperties(deps.Properties))).Methods("GET")
	props.HandleFunc("/search/filter", controllers.GetProperties(deps.Properties)).Methods("GET")
	props.HandleFunc("/random-images", controllers.GetRandomImages(deps.Properties)).Methods("GET")
	props.Handle("/create-property", auth(controllers.CreateProperty(deps.Properties))).Methods("POST")
	props.HandleFunc("/"+idPattern, controllers.GetPropertyByID(deps.Properties)).Methods("GET")
	props.Handle("/"+idPattern, auth(controllers.UpdateProperty(deps.Properties))).Methods("PUT")
	props.Handle("/"+idPattern, auth(controllers.DeleteProperty(deps.Properties))).Methods("DELETE")
	props.Handle("/"+idPattern+"/share", auth(controllers.ShareProperty(deps.Properties, deps.Users))).Methods("GET")
	props.Handle("/"+idPattern+"/images", auth(controllers.DeleteImageByURL(deps.Properties))).Methods("DELETE")
	props.Handle("/"+idPattern+"/images/{externalId:.+}", auth(controllers.DeleteImageByPublicID(deps.Properties))).Methods("DELETE")
}
