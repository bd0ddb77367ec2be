package api

import (
	"net/http"

	"goods-be/internal/contact"
	"goods-be/internal/user"
	"goods-be/internal/utils"
)

const tokenCookie = "access_token"

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in user.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.users.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"id": u.ID, "type": u.Type})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, ErrMissingArgs.With("email and password"))
		return
	}

	token, _, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeOK(w, envelope{"token": token})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
		writeError(w, r, ErrLoginRequired)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
	})
	writeOK(w, nil)
}

func (h *Handler) listContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contacts.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"contacts": nonNil(contacts)})
}

func (h *Handler) createContact(w http.ResponseWriter, r *http.Request) {
	var in contact.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.contacts.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"contact": c})
}

func (h *Handler) updateContact(w http.ResponseWriter, r *http.Request) {
	var in contact.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.contacts.Update(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"contact": c})
}

type deleteRequest struct {
	Items string `json:"items"`
}

func (h *Handler) deleteContacts(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := h.contacts.Delete(r.Context(), req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"deleted": n})
}
