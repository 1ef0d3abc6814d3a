package model

import "github.com/dondeestamimascota/mascotas/internal/lifecycle"

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Registration is the sign-up payload.
type Registration struct {
	Name            string `json:"nombre" validate:"required"`
	Surname         string `json:"apellido" validate:"required"`
	DNI             string `json:"dni" validate:"required,dni"`
	Phone           string `json:"telefono" validate:"required,mobile"`
	Image           string `json:"imagen" validate:"required,url"`
	Email           string `json:"email" validate:"required,email"`
	Province        string `json:"provincia" validate:"required,province"`
	Locality        string `json:"localidad" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"-" validate:"required,eqfield=Password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Name     string `json:"nombre,omitempty" validate:"omitempty,min=2"`
	Surname  string `json:"apellido,omitempty" validate:"omitempty,min=2"`
	Phone    string `json:"telefono,omitempty" validate:"omitempty,mobile"`
	Province string `json:"provincia,omitempty" validate:"omitempty,province"`
	Locality string `json:"localidad,omitempty" validate:"omitempty,min=2"`
	Image    string `json:"imagen,omitempty" validate:"omitempty,url"`
}

// PasswordChange is the change-password form.
type PasswordChange struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"-" validate:"required,eqfield=NewPassword"`
}

// PostingDraft is the create/edit payload for a posting.
type PostingDraft struct {
	Name        string           `json:"nombre" validate:"required,min=2"`
	Color       string           `json:"color" validate:"required,min=2"`
	Size        string           `json:"tamanio" validate:"required,oneof=Chico Mediano Grande"`
	Description string           `json:"descripcion" validate:"required,min=10"`
	Phone       string           `json:"telefono" validate:"required,phone"`
	Status      lifecycle.Status `json:"estado" validate:"required,status"`
	Province    string           `json:"provincia" validate:"required,province"`
	Locality    string           `json:"localidad" validate:"required,min=2"`
	Street      string           `json:"calle" validate:"required,min=2"`
	Number      string           `json:"altura" validate:"required,number"`
	Images      []string         `json:"imagenes64,omitempty"`
}

// DraftOf builds an edit draft from an existing posting.
func DraftOf(p Posting) PostingDraft {
	return PostingDraft{
		Name:        p.Name,
		Color:       p.Color,
		Size:        p.Size,
		Description: p.Description,
		Phone:       p.Phone,
		Status:      p.Status,
		Province:    p.Province,
		Locality:    p.Locality,
		Street:      p.Street,
		Number:      p.Number,
		Images:      p.Images,
	}
}

// SightingDraft is the create payload for a sighting.
type SightingDraft struct {
	PostingID   *int64   `json:"publicacionId,omitempty"`
	Address     string   `json:"direccion,omitempty"`
	Date        string   `json:"fecha" validate:"required,datetime=2006-01-02"`
	Time        string   `json:"hora" validate:"required,datetime=15:04:05"`
	Description string   `json:"descripcion" validate:"required,min=10"`
	Province    string   `json:"provincia" validate:"required,province"`
	Locality    string   `json:"localidad" validate:"required,min=2"`
	Street      string   `json:"calle" validate:"required,min=2"`
	Number      string   `json:"altura" validate:"required,number"`
	Images      []string `json:"imagenes64,omitempty"`
}

// Provinces are the accepted province names.
var Provinces = []string{
	"Buenos Aires", "CABA", "Catamarca", "Chaco", "Chubut",
	"Córdoba", "Corrientes", "Entre Ríos", "Formosa", "Jujuy",
	"La Pampa", "La Rioja", "Mendoza", "Misiones", "Neuquén",
	"Río Negro", "Salta", "San Juan", "San Luis", "Santa Cruz",
	"Santa Fe", "Santiago del Estero", "Tierra del Fuego", "Tucumán",
}

// Sizes are the accepted pet sizes.
var Sizes = []string{"Chico", "Mediano", "Grande"}
