package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rolodexhq/rolodex/pkg/contacts"
	"github.com/rolodexhq/rolodex/pkg/httputil"
	"github.com/rolodexhq/rolodex/pkg/middleware"
)

// ContactHandlers serves the per-account address book. Every route
// requires authentication; rows are scoped to the caller's account.
type ContactHandlers struct {
	contacts *contacts.Service
}

// NewContactHandlers creates the contact handler group
func NewContactHandlers(contactService *contacts.Service) *ContactHandlers {
	return &ContactHandlers{contacts: contactService}
}

// RegisterRoutes registers the contact routes on an authenticated subrouter
func (h *ContactHandlers) RegisterRoutes(router *mux.Router, authMW *middleware.AuthMiddleware) {
	sub := router.PathPrefix("/contacts").Subrouter()
	sub.Use(authMW.Require)

	sub.HandleFunc("", h.create).Methods("POST")
	sub.HandleFunc("", h.list).Methods("GET")
	sub.HandleFunc("/search", h.search).Methods("GET")
	sub.HandleFunc("/birthdays", h.birthdays).Methods("GET")
	sub.HandleFunc("/{id:[0-9]+}", h.get).Methods("GET")
	sub.HandleFunc("/{id:[0-9]+}", h.update).Methods("PUT")
	sub.HandleFunc("/{id:[0-9]+}", h.delete).Methods("DELETE")
}

func ownerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return 0, false
	}
	return identity.ID, true
}

// create handles POST /api/contacts
func (h *ContactHandlers) create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var in contacts.Input
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}
	if !httputil.RequireNonEmpty(w, in.FirstName, "first_name") {
		return
	}

	contact, err := h.contacts.Create(r.Context(), owner, in)
	if err != nil {
		httputil.WriteInternalError(w, errors.New("failed to create contact"))
		return
	}

	httputil.WriteCreated(w, contact)
}

// list handles GET /api/contacts with limit/offset paging
func (h *ContactHandlers) list(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	limit, err := httputil.ParseQueryInt(r, "limit", 0)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid limit parameter")
		return
	}
	offset, err := httputil.ParseQueryInt(r, "offset", 0)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid offset parameter")
		return
	}

	found, err := h.contacts.List(r.Context(), owner, contacts.SearchFilter{}, limit, offset)
	if err != nil {
		httputil.WriteInternalError(w, errors.New("failed to list contacts"))
		return
	}

	httputil.WriteSuccess(w, contactList(found))
}

// search handles GET /api/contacts/search. Name filters match prefixes,
// the email filter matches substrings.
func (h *ContactHandlers) search(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	filter := contacts.SearchFilter{
		FirstName: httputil.ParseQueryString(r, "first_name", ""),
		LastName:  httputil.ParseQueryString(r, "last_name", ""),
		Email:     httputil.ParseQueryString(r, "email", ""),
	}

	limit, err := httputil.ParseQueryInt(r, "limit", 0)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid limit parameter")
		return
	}
	offset, err := httputil.ParseQueryInt(r, "offset", 0)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid offset parameter")
		return
	}

	found, err := h.contacts.List(r.Context(), owner, filter, limit, offset)
	if err != nil {
		httputil.WriteInternalError(w, errors.New("failed to search contacts"))
		return
	}

	httputil.WriteSuccess(w, contactList(found))
}

// birthdays handles GET /api/contacts/birthdays?days=N
func (h *ContactHandlers) birthdays(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	days, err := httputil.ParseQueryInt(r, "days", 0)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid days parameter")
		return
	}

	found, err := h.contacts.UpcomingBirthdays(r.Context(), owner, days)
	if err != nil {
		httputil.WriteInternalError(w, errors.New("failed to list birthdays"))
		return
	}

	httputil.WriteSuccess(w, contactList(found))
}

// get handles GET /api/contacts/{id}
func (h *ContactHandlers) get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	contact, err := h.contacts.Get(r.Context(), owner, id)
	if errors.Is(err, contacts.ErrNotFound) {
		httputil.WriteNotFoundError(w, contactNotFound(id))
		return
	} else if err != nil {
		httputil.WriteInternalError(w, errors.New("failed to load contact"))
		return
	}

	httputil.WriteSuccess(w, contact)
}

// update handles PUT /api/contacts/{id}
func (h *ContactHandlers) update(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var in contacts.Input
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}
	if !httputil.RequireNonEmpty(w, in.FirstName, "first_name") {
		return
	}

	contact, err := h.contacts.Update(r.Context(), owner, id, in)
	if errors.Is(err, contacts.ErrNotFound) {
		httputil.WriteNotFoundError(w, contactNotFound(id))
		return
	} else if err != nil {
		httputil.WriteInternalError(w, errors.New("failed to update contact"))
		return
	}

	httputil.WriteSuccess(w, contact)
}

// delete handles DELETE /api/contacts/{id}
func (h *ContactHandlers) delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	err := h.contacts.Delete(r.Context(), owner, id)
	if errors.Is(err, contacts.ErrNotFound) {
		httputil.WriteNotFoundError(w, contactNotFound(id))
		return
	} else if err != nil {
		httputil.WriteInternalError(w, errors.New("failed to delete contact"))
		return
	}

	httputil.WriteNoContent(w)
}

func contactNotFound(id int64) string {
	return "Contact with id " + strconv.FormatInt(id, 10) + " not found"
}

// contactList keeps empty results as [] instead of null
func contactList(found []*contacts.Contact) []*contacts.Contact {
	if found == nil {
		return []*contacts.Contact{}
	}
	return found
}
