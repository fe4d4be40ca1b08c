package controllers

import (
	"net/http"

	"github.com/equipe-visionarios/imoveis-api/models"
	"github.com/equipe-visionarios/imoveis-api/services"
	"github.com/gorilla/mux"
)

const avatarField = "avatar"

func RegisterUser(svc *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.RegisterInput
		if err := decodeJSON(w, r, &in); err != nil {
			WriteDomainError(w, r, err)
			return
		}

		res, err := svc.Register(r.Context(), in)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, res)
	}
}

func LoginUser(svc *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.LoginInput
		if err := decodeJSON(w, r, &in); err != nil {
			WriteDomainError(w, r, err)
			return
		}

		res, err := svc.Login(r.Context(), in)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func ForgotPassword(svc *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forgotPasswordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			WriteDomainError(w, r, err)
			return
		}

		if err := svc.ForgotPassword(r.Context(), req.Email); err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, messageResponse{Message: "Token de redefinição enviado para seu e-mail"})
	}
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func ResetPassword(svc *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			WriteDomainError(w, r, err)
			return
		}

		if err := svc.ResetPassword(r.Context(), mux.Vars(r)["token"], req.Password); err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, messageResponse{Message: "Senha redefinida com sucesso"})
	}
}

func GetProfile(svc *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		u, err := svc.Profile(r.Context(), caller.UserID)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, u)
	}
}

// UpdateProfile accepts JSON, or a multipart form carrying an optional avatar file.
func UpdateProfile(svc *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		var upd models.ProfileUpdate
		var avatar *services.ImageFile
		if isMultipart(r) {
			if err := parseMultipart(w, r); err != nil {
				WriteDomainError(w, r, err)
				return
			}
			defer r.MultipartForm.RemoveAll()

			f := newFormFields(r.MultipartForm.Value)
			upd = models.ProfileUpdate{
				Name:     f.str("name"),
				Email:    f.str("email"),
				Password: f.str("password"),
				Phone:    f.str("phone"),
			}
			files, closeFiles, err := openFiles(r, avatarField, 1)
			defer closeFiles()
			if err != nil {
				WriteDomainError(w, r, err)
				return
			}
			if len(files) == 1 {
				avatar = &files[0]
			}
		} else if err := decodeJSON(w, r, &upd); err != nil {
			WriteDomainError(w, r, err)
			return
		}

		u, err := svc.UpdateProfile(r.Context(), caller.UserID, upd, avatar)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, u)
	}
}

func GetUsers(svc *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.List(r.Context())
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, users)
	}
}
