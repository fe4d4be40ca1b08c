package controllers

import (
	"log"
	"net/http"
	"strings"

	"github.com/equipe-visionarios/imoveis-api/models"
	"github.com/equipe-visionarios/imoveis-api/services"
	"github.com/gorilla/mux"
)

const imagesField = "images"

// requireIdentity writes 401 when the request carries no authenticated caller.
func requireIdentity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		log.Printf("Identity missing in context for %s %s", r.Method, r.URL.Path)
		WriteDomainError(w, r, models.ErrUnauthorized)
	}
	return id, ok
}

func CreateProperty(svc *services.PropertyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		var in models.PropertyInput
		var files []services.ImageFile
		if isMultipart(r) {
			if err := parseMultipart(w, r); err != nil {
				WriteDomainError(w, r, err)
				return
			}
			defer r.MultipartForm.RemoveAll()

			var err error
			if in, err = propertyInputFromForm(r.MultipartForm.Value); err != nil {
				WriteDomainError(w, r, err)
				return
			}
			var closeFiles func()
			files, closeFiles, err = openFiles(r, imagesField, services.MaxImagesPerRequest)
			defer closeFiles()
			if err != nil {
				WriteDomainError(w, r, err)
				return
			}
		} else if err := decodeJSON(w, r, &in); err != nil {
			WriteDomainError(w, r, err)
			return
		}

		p, err := svc.Create(r.Context(), caller, in, files)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, p)
	}
}

// GetProperties serves both the listing and the filter search.
func GetProperties(svc *services.PropertyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := models.ParsePropertyFilter(r.URL.Query())

		props, err := svc.List(r.Context(), filter)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, props)
	}
}

func GetPropertyByID(svc *services.PropertyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}

		p, err := svc.Get(r.Context(), id)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, p)
	}
}

func UpdateProperty(svc *services.PropertyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		id, err := pathID(r)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}

		var u models.PropertyUpdate
		var files []services.ImageFile
		if isMultipart(r) {
			if err := parseMultipart(w, r); err != nil {
				WriteDomainError(w, r, err)
				return
			}
			defer r.MultipartForm.RemoveAll()

			if u, err = propertyUpdateFromForm(r.MultipartForm.Value); err != nil {
				WriteDomainError(w, r, err)
				return
			}
			var closeFiles func()
			files, closeFiles, err = openFiles(r, imagesField, services.MaxImagesPerRequest)
			defer closeFiles()
			if err != nil {
				WriteDomainError(w, r, err)
				return
			}
		} else if err := decodeJSON(w, r, &u); err != nil {
			WriteDomainError(w, r, err)
			return
		}

		p, err := svc.Update(r.Context(), caller, id, u, files)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, p)
	}
}

type removeImageRequest struct {
	ImageURL string `json:"imageUrl"`
}

type imagesResponse struct {
	Message string         `json:"message"`
	Images  []models.Image `json:"images"`
}

type propertyResponse struct {
	Message  string           `json:"message"`
	Property *models.Property `json:"property"`
}

func DeleteImageByURL(svc *services.PropertyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		id, err := pathID(r)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}

		var req removeImageRequest
		if err := decodeJSON(w, r, &req); err != nil {
			WriteDomainError(w, r, err)
			return
		}
		if strings.TrimSpace(req.ImageURL) == "" {
			WriteDomainError(w, r, models.NewValidationError(map[string]string{"imageUrl": "campo obrigatório"}))
			return
		}

		p, err := svc.RemoveImageByURL(r.Context(), caller, id, req.ImageURL)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, imagesResponse{Message: "Imagem removida com sucesso", Images: p.Images})
	}
}

func DeleteImageByPublicID(svc *services.PropertyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		id, err := pathID(r)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}

		p, err := svc.RemoveImageByPublicID(r.Context(), caller, id, mux.Vars(r)["externalId"])
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, propertyResponse{Message: "Imagem removida com sucesso", Property: p})
	}
}

func DeleteProperty(svc *services.PropertyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		id, err := pathID(r)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}

		if err := svc.Delete(r.Context(), caller, id); err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, messageResponse{Message: "Imóvel removido com sucesso"})
	}
}

func GetRandomImages(svc *services.PropertyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		samples, err := svc.RandomImages(r.Context())
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, samples)
	}
}

type shareResponse struct {
	WhatsappLink string `json:"whatsappLink"`
}

func ShareProperty(props *services.PropertyService, users *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		id, err := pathID(r)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}

		sharer, err := users.Profile(r.Context(), caller.UserID)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		link, err := props.ShareLink(r.Context(), sharer, id)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, shareResponse{WhatsappLink: link})
	}
}
