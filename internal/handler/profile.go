package handler

import (
	"log"
	"net/http"

	"github.com/jshauns81/daily-bread/internal/model"
	"github.com/jshauns81/daily-bread/internal/store"
)

type ProfileHandler struct {
	profiles *store.ProfileStore
	ledger   *store.LedgerStore
}

func NewProfileHandler(profiles *store.ProfileStore, ledger *store.LedgerStore) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, ledger: ledger}
}

type profileRequest struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Color       string `json:"color"`
	AvatarEmoji string `json:"avatar_emoji"`
	Active      *bool  `json:"active"`
	SortOrder   int    `json:"sort_order"`
}

func validRole(s string) bool {
	r := model.ProfileRole(s)
	return r == model.RoleParent || r == model.RoleChild
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeErr(w, http.StatusBadRequest, "name is required")
		return
	}
	if !validRole(req.Role) {
		writeErr(w, http.StatusBadRequest, "role must be parent or child")
		return
	}

	p, err := h.profiles.Create(req.Name, model.ProfileRole(req.Role), req.Color, req.AvatarEmoji, req.SortOrder)
	if err != nil {
		log.Printf("failed to create profile: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to create profile")
		return
	}
	// Every profile starts with a default spending account so earnings
	// always have somewhere to land.
	if _, err := h.ledger.CreateAccount(p.ID, "Spending", true); err != nil {
		log.Printf("failed to create default account for profile %d: %v", p.ID, err)
		writeErr(w, http.StatusInternalServerError, "failed to create default account")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.List()
	if err != nil {
		log.Printf("failed to list profiles: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	p, err := h.profiles.GetByID(id)
	if err != nil {
		log.Printf("failed to get profile: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if p == nil {
		writeErr(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	existing, err := h.profiles.GetByID(id)
	if err != nil {
		log.Printf("failed to get profile: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if existing == nil {
		writeErr(w, http.StatusNotFound, "profile not found")
		return
	}

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := existing.Name
	if req.Name != "" {
		name = req.Name
	}
	role := existing.Role
	if req.Role != "" {
		if !validRole(req.Role) {
			writeErr(w, http.StatusBadRequest, "role must be parent or child")
			return
		}
		role = model.ProfileRole(req.Role)
	}
	color := existing.Color
	if req.Color != "" {
		color = req.Color
	}
	emoji := existing.AvatarEmoji
	if req.AvatarEmoji != "" {
		emoji = req.AvatarEmoji
	}
	active := existing.Active
	if req.Active != nil {
		active = *req.Active
	}
	sortOrder := existing.SortOrder
	if req.SortOrder != 0 {
		sortOrder = req.SortOrder
	}

	p, err := h.profiles.Update(id, name, role, color, emoji, active, sortOrder)
	if err != nil {
		log.Printf("failed to update profile: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	if err := h.profiles.Deactivate(id); err != nil {
		log.Printf("failed to deactivate profile: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to deactivate profile")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
