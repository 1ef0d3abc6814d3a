package model

import (
	"strings"

	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
)

// Author is the denormalized snapshot of a posting author or sighting reporter.
type Author struct {
	ID      int64  `json:"id"`
	Name    string `json:"nombre"`
	Surname string `json:"apellido"`
	Email   string `json:"email"`
	Phone   string `json:"telefono"`
}

// FullName joins name and surname.
func (a Author) FullName() string {
	return strings.TrimSpace(a.Name + " " + a.Surname)
}

// User is the logged-in user's profile.
type User struct {
	ID        int64      `json:"id"`
	Name      string     `json:"nombre"`
	Surname   string     `json:"apellido"`
	DNI       string     `json:"dni"`
	Email     string     `json:"email"`
	Phone     string     `json:"telefono"`
	Image     string     `json:"imagen"`
	Province  string     `json:"provincia"`
	Locality  string     `json:"localidad"`
	Latitude  *float64   `json:"latitud,omitempty"`
	Longitude *float64   `json:"longitud,omitempty"`
	Postings  []Posting  `json:"publicaciones,omitempty"`
	Sightings []Sighting `json:"avistamientos,omitempty"`
}

// HasCoordinates reports whether the user location is known.
func (u *User) HasCoordinates() bool {
	return u.Latitude != nil && u.Longitude != nil
}

// Posting is a lost/found pet report.
type Posting struct {
	ID          int64            `json:"id"`
	Name        string           `json:"nombre"`
	Color       string           `json:"color"`
	Size        string           `json:"tamanio"`
	Date        string           `json:"fecha"`
	Description string           `json:"descripcion"`
	Phone       string           `json:"telefono"`
	Status      lifecycle.Status `json:"estado"`
	Images      []string         `json:"imagenes64,omitempty"`
	Province    string           `json:"provincia"`
	Locality    string           `json:"localidad"`
	Street      string           `json:"calle"`
	Number      string           `json:"altura"`
	Latitude    *float64         `json:"latitud,omitempty"`
	Longitude   *float64         `json:"longitud,omitempty"`
	Author      Author           `json:"autor"`
	Sightings   []Sighting       `json:"avistamientos,omitempty"`
}

// HasCoordinates reports whether the posting can be placed on a map.
func (p *Posting) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Sighting is an observation of a pet, optionally linked to a posting.
type Sighting struct {
	ID          int64    `json:"id"`
	PostingID   *int64   `json:"publicacionId"`
	Reporter    Author   `json:"reportante"`
	Address     string   `json:"direccion"`
	Date        string   `json:"fecha"`
	Time        string   `json:"hora"`
	Description string   `json:"descripcion"`
	Images      []string `json:"imagenes64,omitempty"`
	Province    string   `json:"provincia"`
	Locality    string   `json:"localidad"`
	Street      string   `json:"calle"`
	Number      string   `json:"altura"`
	Latitude    *float64 `json:"latitud,omitempty"`
	Longitude   *float64 `json:"longitud,omitempty"`
}

// HasCoordinates reports whether the sighting can be placed on a map.
func (s *Sighting) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// Linked reports whether the sighting belongs to a posting.
func (s *Sighting) Linked() bool {
	return s.PostingID != nil
}
