package models

import (
	"encoding/json"
	"testing"
)

func TestCustomerApply(t *testing.T) {
	name := "Ana Souza"
	status := StatusActive
	base := Customer{ID: "c1", Name: "Ana", Email: "ana@example.com", Phone: "1199", Status: StatusLead}

	got := base.Apply(CustomerPatch{Name: &name, Status: &status})

	if got.Name != name || got.Status != StatusActive {
		t.Errorf("Apply = %+v; want name %q and status active", got, name)
	}
	if got.Email != base.Email || got.Phone != base.Phone || got.ID != base.ID {
		t.Errorf("Apply changed untouched fields: %+v", got)
	}
	if base.Name != "Ana" {
		t.Errorf("Apply mutated the receiver: %+v", base)
	}
}

func TestCustomerPatchEmpty(t *testing.T) {
	if !(CustomerPatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
	phone := ""
	if (CustomerPatch{Phone: &phone}).Empty() {
		t.Error("patch clearing the phone is not empty")
	}
}

func TestCustomerStatusValid(t *testing.T) {
	for _, s := range []CustomerStatus{StatusLead, StatusActive, StatusInactive} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if CustomerStatus("vip").Valid() {
		t.Error(`"vip" should not be valid`)
	}
}

func TestCustomerWireNames(t *testing.T) {
	raw := `{"id":"7","nome":"Bia","email":"bia@example.com","telefone":"55","status":"lead"}`
	var c Customer
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := Customer{ID: "7", Name: "Bia", Email: "bia@example.com", Phone: "55", Status: StatusLead}
	if c != want {
		t.Errorf("got %+v; want %+v", c, want)
	}
}

func TestSessionValid(t *testing.T) {
	if (Session{}).Valid() {
		t.Error("empty session should not be valid")
	}
	if !(Session{Token: "t1"}).Valid() {
		t.Error("session with token should be valid")
	}
}
