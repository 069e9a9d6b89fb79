package handlers

import (
	"net/http"

	"github.com/MKale112/devConnector/internal/httpx"
	"github.com/MKale112/devConnector/internal/posts"
)

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) error {
	in, err := httpx.Decode[posts.CreateReq](r)
	if err != nil {
		return err
	}
	p, err := h.posts.Create(r.Context(), httpx.UserID(r), in)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, p, http.StatusOK)
	return nil
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) error {
	ps, err := h.posts.List(r.Context())
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, ps, http.StatusOK)
	return nil
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) error {
	p, err := h.posts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, p, http.StatusOK)
	return nil
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) error {
	if err := h.posts.Delete(r.Context(), r.PathValue("id"), httpx.UserID(r)); err != nil {
		return err
	}
	httpx.WriteJSON(w, httpx.Msg{Msg: "Post removed"}, http.StatusOK)
	return nil
}

func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) error {
	likes, err := h.posts.Like(r.Context(), r.PathValue("id"), httpx.UserID(r))
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, likes, http.StatusOK)
	return nil
}

func (h *Handler) UnlikePost(w http.ResponseWriter, r *http.Request) error {
	likes, err := h.posts.Unlike(r.Context(), r.PathValue("id"), httpx.UserID(r))
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, likes, http.StatusOK)
	return nil
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) error {
	in, err := httpx.Decode[posts.CommentReq](r)
	if err != nil {
		return err
	}
	comments, err := h.posts.AddComment(r.Context(), r.PathValue("id"), httpx.UserID(r), in)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, comments, http.StatusOK)
	return nil
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) error {
	comments, err := h.posts.DeleteComment(r.Context(), r.PathValue("id"), httpx.UserID(r), r.PathValue("comment_id"))
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, comments, http.StatusOK)
	return nil
}
