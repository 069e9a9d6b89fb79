package handlers

import (
	"net/http"

	"github.com/MKale112/devConnector/internal/httpx"
	"github.com/MKale112/devConnector/internal/profile"
)

func (h *Handler) MyProfile(w http.ResponseWriter, r *http.Request) error {
	p, err := h.profiles.GetOwn(r.Context(), httpx.UserID(r))
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, p, http.StatusOK)
	return nil
}

func (h *Handler) UpsertProfile(w http.ResponseWriter, r *http.Request) error {
	patch, err := httpx.Decode[profile.Patch](r)
	if err != nil {
		return err
	}
	p, err := h.profiles.Upsert(r.Context(), httpx.UserID(r), patch)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, p, http.StatusOK)
	return nil
}

func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) error {
	ps, err := h.profiles.List(r.Context())
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, ps, http.StatusOK)
	return nil
}

func (h *Handler) ProfileByUser(w http.ResponseWriter, r *http.Request) error {
	p, err := h.profiles.GetByUser(r.Context(), r.PathValue("user_id"))
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, p, http.StatusOK)
	return nil
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) error {
	if err := h.profiles.DeleteAccount(r.Context(), httpx.UserID(r)); err != nil {
		return err
	}
	httpx.WriteJSON(w, httpx.Msg{Msg: "User deleted"}, http.StatusOK)
	return nil
}

func (h *Handler) AddExperience(w http.ResponseWriter, r *http.Request) error {
	in, err := httpx.Decode[profile.ExperienceReq](r)
	if err != nil {
		return err
	}
	p, err := h.profiles.AddExperience(r.Context(), httpx.UserID(r), in)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, p, http.StatusOK)
	return nil
}

func (h *Handler) RemoveExperience(w http.ResponseWriter, r *http.Request) error {
	p, err := h.profiles.RemoveExperience(r.Context(), httpx.UserID(r), r.PathValue("exp_id"))
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, p, http.StatusOK)
	return nil
}

func (h *Handler) AddEducation(w http.ResponseWriter, r *http.Request) error {
	in, err := httpx.Decode[profile.EducationReq](r)
	if err != nil {
		return err
	}
	p, err := h.profiles.AddEducation(r.Context(), httpx.UserID(r), in)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, p, http.StatusOK)
	return nil
}

func (h *Handler) RemoveEducation(w http.ResponseWriter, r *http.Request) error {
	p, err := h.profiles.RemoveEducation(r.Context(), httpx.UserID(r), r.PathValue("edu_id"))
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, p, http.StatusOK)
	return nil
}

func (h *Handler) GithubRepos(w http.ResponseWriter, r *http.Request) error {
	repos, err := h.profiles.GithubRepos(r.Context(), r.PathValue("username"))
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, repos, http.StatusOK)
	return nil
}
