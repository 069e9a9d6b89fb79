package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKale112/devConnector/internal/apperr"
	"github.com/MKale112/devConnector/internal/models"
)

var (
	errPostNotFound    = apperr.NotFound("Post not found")
	errCommentNotFound = apperr.NotFound("Comment does not exist")
	errAlreadyLiked    = apperr.Conflict("Post already liked")
	errNotLiked        = apperr.Conflict("Post has not yet been liked")
)

type Repository interface {
	Create(ctx context.Context, p *models.Post) error
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	Delete(ctx context.Context, id, userID string) (bool, error)
	AddLike(ctx context.Context, postID string, l models.Like) ([]models.Like, error)
	RemoveLike(ctx context.Context, postID, userID string) ([]models.Like, error)
	AddComment(ctx context.Context, postID string, c models.Comment) ([]models.Comment, error)
	GetComment(ctx context.Context, postID, commentID string) (*models.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID, userID string) ([]models.Comment, error)
}

type repo struct{ db *sql.DB }

func NewRepository(db *sql.DB) Repository { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, p *models.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts(id,user_id,text,name,avatar,created_at) VALUES(?,?,?,?,?,?)`,
		p.ID, p.UserID, p.Text, p.Name, p.Avatar, p.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

const selectPost = `SELECT id,user_id,text,name,avatar,created_at FROM posts`

func scanPost(sc interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	var created int64
	if err := sc.Scan(&p.ID, &p.UserID, &p.Text, &p.Name, &p.Avatar, &created); err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(0, created).UTC()
	p.Likes = []models.Like{}
	p.Comments = []models.Comment{}
	return &p, nil
}

func (r *repo) List(ctx context.Context) ([]models.Post, error) {
	rows, err := r.db.QueryContext(ctx, selectPost+` ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	out := []models.Post{}
	index := map[string]int{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan post: %w", err)
		}
		index[p.ID] = len(out)
		out = append(out, *p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	likes, err := r.likes(ctx, `SELECT post_id,id,user_id FROM post_likes ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	for _, l := range likes {
		if i, ok := index[l.postID]; ok {
			out[i].Likes = append(out[i].Likes, l.Like)
		}
	}
	comments, err := r.comments(ctx, `SELECT post_id,id,user_id,text,name,avatar,created_at FROM comments ORDER BY seq DESC`)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		if i, ok := index[c.postID]; ok {
			out[i].Comments = append(out[i].Comments, c.Comment)
		}
	}
	return out, nil
}

func (r *repo) Get(ctx context.Context, id string) (*models.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, selectPost+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errPostNotFound
	} else if err != nil {
		return nil, fmt.Errorf("select post: %w", err)
	}
	if p.Likes, err = r.likesOf(ctx, id); err != nil {
		return nil, err
	}
	if p.Comments, err = r.commentsOf(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the post only when userID owns it. Likes and comments go
// with it through the foreign keys.
func (r *repo) Delete(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *repo) exists(ctx context.Context, id string) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return errPostNotFound
	}
	return err
}

// AddLike appends a like. The (post, user) unique key makes a second like by
// the same user a no-op, reported as a conflict.
func (r *repo) AddLike(ctx context.Context, postID string, l models.Like) ([]models.Like, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO post_likes(id,post_id,user_id)
		SELECT ?, id, ? FROM posts WHERE id = ?
		ON CONFLICT(post_id,user_id) DO NOTHING`, l.ID, l.UserID, postID)
	if err != nil {
		return nil, fmt.Errorf("insert like: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if err := r.exists(ctx, postID); err != nil {
			return nil, err
		}
		return nil, errAlreadyLiked
	}
	return r.likesOf(ctx, postID)
}

func (r *repo) RemoveLike(ctx context.Context, postID, userID string) ([]models.Like, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("delete like: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if err := r.exists(ctx, postID); err != nil {
			return nil, err
		}
		return nil, errNotLiked
	}
	return r.likesOf(ctx, postID)
}

func (r *repo) AddComment(ctx context.Context, postID string, c models.Comment) ([]models.Comment, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO comments(id,post_id,user_id,text,name,avatar,created_at)
		SELECT ?, id, ?, ?, ?, ?, ? FROM posts WHERE id = ?`,
		c.ID, c.UserID, c.Text, c.Name, c.Avatar, c.CreatedAt.UnixNano(), postID)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errPostNotFound
	}
	return r.commentsOf(ctx, postID)
}

func (r *repo) GetComment(ctx context.Context, postID, commentID string) (*models.Comment, error) {
	if err := r.exists(ctx, postID); err != nil {
		return nil, err
	}
	cs, err := r.comments(ctx, `SELECT post_id,id,user_id,text,name,avatar,created_at FROM comments
		WHERE post_id = ? AND id = ?`, postID, commentID)
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, errCommentNotFound
	}
	return &cs[0].Comment, nil
}

// DeleteComment removes the comment with commentID when userID wrote it.
func (r *repo) DeleteComment(ctx context.Context, postID, commentID, userID string) ([]models.Comment, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ? AND post_id = ? AND user_id = ?`,
		commentID, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("delete comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errCommentNotFound
	}
	return r.commentsOf(ctx, postID)
}

type postLike struct {
	postID string
	models.Like
}

type postComment struct {
	postID string
	models.Comment
}

func (r *repo) likesOf(ctx context.Context, postID string) ([]models.Like, error) {
	rows, err := r.likes(ctx, `SELECT post_id,id,user_id FROM post_likes WHERE post_id = ? ORDER BY seq ASC`, postID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Like, 0, len(rows))
	for _, l := range rows {
		out = append(out, l.Like)
	}
	return out, nil
}

func (r *repo) commentsOf(ctx context.Context, postID string) ([]models.Comment, error) {
	rows, err := r.comments(ctx, `SELECT post_id,id,user_id,text,name,avatar,created_at FROM comments
		WHERE post_id = ? ORDER BY seq DESC`, postID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Comment, 0, len(rows))
	for _, c := range rows {
		out = append(out, c.Comment)
	}
	return out, nil
}

func (r *repo) likes(ctx context.Context, q string, args ...any) ([]postLike, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select likes: %w", err)
	}
	defer rows.Close()
	var out []postLike
	for rows.Next() {
		var l postLike
		if err := rows.Scan(&l.postID, &l.ID, &l.UserID); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repo) comments(ctx context.Context, q string, args ...any) ([]postComment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select comments: %w", err)
	}
	defer rows.Close()
	var out []postComment
	for rows.Next() {
		var c postComment
		var created int64
		if err := rows.Scan(&c.postID, &c.ID, &c.UserID, &c.Text, &c.Name, &c.Avatar, &created); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}
