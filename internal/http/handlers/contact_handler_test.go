package handlers

import (
	"net/http"
	"testing"
)

func TestCreatePhoneContact_NormalizesNumber(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestRouter(New(db, nil, nil, nil, nil))

	w, body := doJSON(t, r, http.MethodPost, "/contacts/phone",
		`{"name": " Amina ", "phone_number": "+234 801 234-5678", "country_code": "234"}`)
	wantStatus(t, w, http.StatusCreated)

	ct, _ := body["contact"].(map[string]any)
	if ct == nil {
		t.Fatalf("body = %v", body)
	}
	if ct["phone_number"] != "+2348012345678" {
		t.Fatalf("phone = %v, want normalized", ct["phone_number"])
	}
	if ct["name"] != "Amina" {
		t.Fatalf("name = %v, want trimmed", ct["name"])
	}
}

func TestCreatePhoneContact_RejectsGarbage(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestRouter(New(db, nil, nil, nil, nil))

	w, body := doJSON(t, r, http.MethodPost, "/contacts/phone",
		`{"name": "X", "phone_number": "not a number"}`)
	wantStatus(t, w, http.StatusBadRequest)
	wantCode(t, body, CodeBadRequest)
}

func TestListPhoneContacts_ScopedToUser(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestRouter(New(db, nil, nil, nil, nil))

	for _, payload := range []string{
		`{"name": "A", "phone_number": "+2348000000001"}`,
		`{"name": "B", "phone_number": "+2348000000002"}`,
	} {
		w, _ := doJSON(t, r, http.MethodPost, "/contacts/phone", payload)
		wantStatus(t, w, http.StatusCreated)
	}

	w, body := doJSON(t, r, http.MethodGet, "/contacts/phone", "")
	wantStatus(t, w, http.StatusOK)
	contacts, _ := body["contacts"].([]any)
	if len(contacts) != 2 {
		t.Fatalf("contacts = %v", body)
	}
}

func TestCreateEmailContact_LowercasesAddress(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestRouter(New(db, nil, nil, nil, nil))

	w, body := doJSON(t, r, http.MethodPost, "/contacts/email",
		`{"name": "Ada", "email": "Ada@Example.COM"}`)
	wantStatus(t, w, http.StatusCreated)

	ct, _ := body["contact"].(map[string]any)
	if ct == nil || ct["email"] != "ada@example.com" {
		t.Fatalf("body = %v", body)
	}
}

func TestCreateEmailContact_RequiresValidAddress(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestRouter(New(db, nil, nil, nil, nil))

	w, body := doJSON(t, r, http.MethodPost, "/contacts/email",
		`{"name": "Ada", "email": "nope"}`)
	wantStatus(t, w, http.StatusBadRequest)
	wantCode(t, body, CodeBadRequest)
}
