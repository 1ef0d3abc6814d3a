package validate

import (
	"errors"
	"testing"

	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/dondeestamimascota/mascotas/internal/model"
)

func validDraft() model.PostingDraft {
	return model.PostingDraft{
		Name:        "Firulais",
		Color:       "Marrón",
		Size:        "Mediano",
		Description: "Perro perdido en zona centro",
		Phone:       "221 (15) 555-1234",
		Status:      lifecycle.LostOwn,
		Province:    "Buenos Aires",
		Locality:    "La Plata",
		Street:      "Calle 7",
		Number:      "123",
	}
}

func TestPostingDraft(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*model.PostingDraft)
		wantField string
	}{
		{"valid", func(*model.PostingDraft) {}, ""},
		{"short name", func(d *model.PostingDraft) { d.Name = "F" }, "nombre"},
		{"unknown size", func(d *model.PostingDraft) { d.Size = "Enorme" }, "tamanio"},
		{"short description", func(d *model.PostingDraft) { d.Description = "perro" }, "descripcion"},
		{"phone letters", func(d *model.PostingDraft) { d.Phone = "call me" }, "telefono"},
		{"unknown status", func(d *model.PostingDraft) { d.Status = "PERDIDO" }, "estado"},
		{"unknown province", func(d *model.PostingDraft) { d.Province = "Narnia" }, "provincia"},
		{"number not digits", func(d *model.PostingDraft) { d.Number = "12b" }, "altura"},
		{"missing street", func(d *model.PostingDraft) { d.Street = "" }, "calle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			err := Struct(d)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Struct() error = %v", err)
				}
				return
			}
			if Field(err, tt.wantField) == "" {
				t.Errorf("Struct() error = %v, want field %q flagged", err, tt.wantField)
			}
		})
	}
}

func TestRegistration(t *testing.T) {
	r := model.Registration{
		Name:            "Juan",
		Surname:         "Pérez",
		DNI:             "30123456",
		Phone:           "+5492215551234",
		Image:           "https://example.com/juan.png",
		Email:           "juan@email.com",
		Province:        "Buenos Aires",
		Locality:        "La Plata",
		Password:        "secreto",
		ConfirmPassword: "secreto",
	}
	if err := Struct(r); err != nil {
		t.Fatalf("Struct(valid registration) error = %v", err)
	}

	r.ConfirmPassword = "otro"
	r.DNI = "123"
	err := Struct(r)
	var ve *Error
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if ve.Fields["ConfirmPassword"] != "does not match" {
		t.Errorf("ConfirmPassword = %q, want 'does not match'", ve.Fields["ConfirmPassword"])
	}
	if ve.Fields["dni"] == "" {
		t.Error("dni should be flagged")
	}
}

func TestSightingDraftDateFormats(t *testing.T) {
	d := model.SightingDraft{
		Date:        "2024-12-10",
		Time:        "18:30:00",
		Description: "Lo vi cerca de la plaza",
		Province:    "Buenos Aires",
		Locality:    "La Plata",
		Street:      "Calle 50",
		Number:      "700",
	}
	if err := Struct(d); err != nil {
		t.Fatalf("Struct() error = %v", err)
	}
	d.Date = "10/12/2024"
	if Field(Struct(d), "fecha") == "" {
		t.Error("fecha in dd/mm/yyyy should be rejected")
	}
}

func TestCredentials(t *testing.T) {
	if err := Struct(model.Credentials{Email: "a@b.com", Password: "123"}); Field(err, "password") == "" {
		t.Errorf("short password not flagged: %v", err)
	}
	if err := Struct(model.Credentials{Email: "nope", Password: "123456"}); Field(err, "email") == "" {
		t.Errorf("bad email not flagged: %v", err)
	}
}

func TestErrorMessageIsSorted(t *testing.T) {
	e := &Error{Fields: map[string]string{"b": "is required", "a": "is required"}}
	if got, want := e.Error(), "validation failed: a is required; b is required"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
